package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the schema for persisted client-local state.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&localStorageRecord{},
	)
}

// Local storage schema mirrors the identity Postgres adapter.
type localStorageRecord struct {
	Namespace string    `gorm:"primaryKey;column:namespace;size:128"`
	Key       string    `gorm:"primaryKey;column:key;size:128"`
	Value     string    `gorm:"column:value;size:512"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;index"`
}

func (localStorageRecord) TableName() string { return "local_storage_entries" }
