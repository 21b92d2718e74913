package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	identityports "github.com/Apurer/storefront-core/internal/domains/identity/ports"
)

// LocalStorage persists client-local values in PostgreSQL.
type LocalStorage struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLocalStorage wires a PostgreSQL-backed local storage. Caller owns DB lifecycle.
func NewLocalStorage(db *gorm.DB) *LocalStorage {
	return &LocalStorage{db: db, now: time.Now}
}

type localStorageRecord struct {
	Namespace string    `gorm:"primaryKey;column:namespace;size:128"`
	Key       string    `gorm:"primaryKey;column:key;size:128"`
	Value     string    `gorm:"column:value;size:512"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;index"`
}

func (localStorageRecord) TableName() string { return "local_storage_entries" }

func (s *LocalStorage) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := s.ensureDB(); err != nil {
		return "", false, err
	}
	var rec localStorageRecord
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", identityports.ErrStorageUnavailable, err)
	}
	return rec.Value, true, nil
}

// Put upserts the value under (namespace, key).
func (s *LocalStorage) Put(ctx context.Context, namespace, key, value string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	namespace = strings.TrimSpace(namespace)
	key = strings.TrimSpace(key)
	if namespace == "" || key == "" {
		return errors.New("namespace and key are required")
	}
	now := s.now()
	rec := localStorageRecord{Namespace: namespace, Key: key, Value: value, CreatedAt: now, UpdatedAt: now}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("%w: %v", identityports.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *LocalStorage) Delete(ctx context.Context, namespace, key string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		Delete(&localStorageRecord{}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", identityports.ErrStorageUnavailable, err)
	}
	return nil
}

// PurgeStale removes entries not written since cutoff. Use for housekeeping or cron.
func (s *LocalStorage) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&localStorageRecord{})
	return res.RowsAffected, res.Error
}

func (s *LocalStorage) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres local storage not configured")
	}
	return nil
}

var _ identityports.LocalStorage = (*LocalStorage)(nil)
