package pages

import (
	"time"

	"gorm.io/gorm"
)

// RenderedPageRecord is a pre-rendered HTML page keyed by request path.
type RenderedPageRecord struct {
	gorm.Model
	Path       string    `gorm:"size:512;uniqueIndex:idx_rendered_pages_path;not null"`
	Status     int       `gorm:"not null"`
	Body       []byte    `gorm:"type:blob;not null"`
	RenderedAt time.Time `gorm:"index;not null"`
}

// TableName defines the table name for rendered pages.
func (RenderedPageRecord) TableName() string {
	return "rendered_pages"
}
