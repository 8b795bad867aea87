package explorer

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRecord is one archived vault event. Attributes hold the rendered event
// attributes as JSON.
type EventRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence   uint64    `gorm:"uniqueIndex;not null"`
	Type       string    `gorm:"size:64;index"`
	Account    string    `gorm:"size:96;index"`
	Attributes string    `gorm:"type:text"`
	Digest     string    `gorm:"size:64;index"`
	CreatedAt  time.Time
}

// AutoMigrate performs all schema migrations for the archive.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&EventRecord{})
}
