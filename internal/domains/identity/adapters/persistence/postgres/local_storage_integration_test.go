//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/storefront-core/internal/domains/identity/application"
	"github.com/Apurer/storefront-core/internal/domains/identity/domain"
	"github.com/Apurer/storefront-core/internal/platform/migrations"
)

func setupLocalStoragePostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestLocalStorage_PutGetDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLocalStoragePostgresContainer(t)
	defer cleanup()

	store := NewLocalStorage(db)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "device-a", domain.GuestTokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "device-a", domain.GuestTokenKey, "first"))
	require.NoError(t, store.Put(ctx, "device-a", domain.GuestTokenKey, "second"))
	require.NoError(t, store.Put(ctx, "device-b", domain.GuestTokenKey, "other"))

	value, ok, err := store.Get(ctx, "device-a", domain.GuestTokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", value)

	require.NoError(t, store.Delete(ctx, "device-a", domain.GuestTokenKey))
	_, ok, err = store.Get(ctx, "device-a", domain.GuestTokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	value, ok, err = store.Get(ctx, "device-b", domain.GuestTokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "other", value)
}

func TestLocalStorage_GuestTokenSurvivesRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLocalStoragePostgresContainer(t)
	defer cleanup()

	ctx := context.Background()
	first := application.NewGuestIdentity(NewLocalStorage(db), "kiosk-1")
	token, err := first.GetOrCreateToken(ctx)
	require.NoError(t, err)

	restarted := application.NewGuestIdentity(NewLocalStorage(db), "kiosk-1")
	again, err := restarted.GetOrCreateToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, again)
}

func TestLocalStorage_PurgeStale(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLocalStoragePostgresContainer(t)
	defer cleanup()

	ctx := context.Background()
	store := NewLocalStorage(db)
	old := time.Now().Add(-48 * time.Hour)
	store.now = func() time.Time { return old }
	require.NoError(t, store.Put(ctx, "stale", domain.GuestTokenKey, "x"))
	store.now = time.Now
	require.NoError(t, store.Put(ctx, "fresh", domain.GuestTokenKey, "y"))

	removed, err := store.PurgeStale(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, ok, err := store.Get(ctx, "fresh", domain.GuestTokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
}
