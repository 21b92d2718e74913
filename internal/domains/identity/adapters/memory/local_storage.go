package memory

import (
	"context"
	"sync"
	"time"

	identityports "github.com/Apurer/storefront-core/internal/domains/identity/ports"
)

// LocalStorage is an in-memory LocalStorage implementation.
type LocalStorage struct {
	entries sync.Map
	now     func() time.Time
}

type storageKey struct{ namespace, key string }

type storedValue struct {
	value     string
	updatedAt time.Time
}

func NewLocalStorage() *LocalStorage {
	return &LocalStorage{now: time.Now}
}

// WithClock overrides the timestamp source for deterministic testing.
func (s *LocalStorage) WithClock(now func() time.Time) *LocalStorage {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *LocalStorage) Get(_ context.Context, namespace, key string) (string, bool, error) {
	v, ok := s.entries.Load(storageKey{namespace, key})
	if !ok {
		return "", false, nil
	}
	return v.(storedValue).value, true, nil
}

func (s *LocalStorage) Put(_ context.Context, namespace, key, value string) error {
	s.entries.Store(storageKey{namespace, key}, storedValue{value: value, updatedAt: s.now()})
	return nil
}

func (s *LocalStorage) Delete(_ context.Context, namespace, key string) error {
	s.entries.Delete(storageKey{namespace, key})
	return nil
}

// PurgeStale removes entries not written since cutoff and returns how many were removed.
func (s *LocalStorage) PurgeStale(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	s.entries.Range(func(k, v any) bool {
		if v.(storedValue).updatedAt.Before(cutoff) {
			s.entries.Delete(k)
			removed++
		}
		return true
	})
	return removed, nil
}

var _ identityports.LocalStorage = (*LocalStorage)(nil)
