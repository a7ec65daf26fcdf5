package pages

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spacetraveling/app/internal/domain/prerender"
)

// Repository stores rendered page snapshots using Gorm.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed snapshot store.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger}, nil
}

var _ prerender.Store = (*Repository)(nil)

// Get returns the snapshot for the path or nil when none was rendered yet.
func (r *Repository) Get(ctx context.Context, path string) (*prerender.Snapshot, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, eris.New("path is required")
	}

	var record RenderedPageRecord
	err := r.db.WithContext(ctx).First(&record, "path = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"path": trimmed}, err, "fetching rendered page")
		return nil, eris.Wrapf(err, "fetching rendered page: %s", trimmed)
	}

	return toSnapshot(&record), nil
}

// Save inserts the snapshot or replaces the one already stored for its path.
func (r *Repository) Save(ctx context.Context, snapshot *prerender.Snapshot) error {
	if snapshot == nil {
		return eris.New("snapshot is nil")
	}

	trimmed := strings.TrimSpace(snapshot.Path)
	if trimmed == "" {
		return eris.New("snapshot path is required")
	}

	record := &RenderedPageRecord{
		Path:       trimmed,
		Status:     snapshot.Status,
		Body:       snapshot.Body,
		RenderedAt: snapshot.RenderedAt.UTC(),
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "body", "rendered_at", "updated_at", "deleted_at"}),
	}).Create(record).Error
	if err != nil {
		r.logError(logrus.Fields{"path": trimmed}, err, "saving rendered page")
		return eris.Wrapf(err, "saving rendered page: %s", trimmed)
	}

	return nil
}

// Count returns the number of stored snapshots.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&RenderedPageRecord{}).Count(&count).Error; err != nil {
		r.logError(nil, err, "counting rendered pages")
		return 0, eris.Wrap(err, "counting rendered pages")
	}

	return count, nil
}

func (r *Repository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func toSnapshot(record *RenderedPageRecord) *prerender.Snapshot {
	return &prerender.Snapshot{
		Path:       record.Path,
		Status:     record.Status,
		Body:       record.Body,
		RenderedAt: record.RenderedAt,
	}
}
