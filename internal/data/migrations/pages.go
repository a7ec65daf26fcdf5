package migrations

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	pagedata "spacetraveling/app/internal/data/pages"
)

// MigratePages creates or updates the rendered page table.
func MigratePages(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "pages.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying rendered page schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&pagedata.RenderedPageRecord{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("rendered page schema migration failed")
		}
		return eris.Wrap(err, "auto migrating rendered page schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Debug("rendered page schema ready")
	}

	return nil
}
