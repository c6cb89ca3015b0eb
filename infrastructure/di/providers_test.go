package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cognitivediary/application/ports"
	"cognitivediary/infrastructure/config"
	"cognitivediary/infrastructure/persistence/memory"
	"cognitivediary/infrastructure/persistence/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:       "development",
		StorageBackend:    config.StorageMemory,
		SQLitePath:        filepath.Join(t.TempDir(), "diary.db"),
		EnrichmentTimeout: 20 * time.Second,
		LogLevel:          "debug",
	}
}

func TestProvideSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	tests := []struct {
		backend string
		check   func(t *testing.T, repo ports.SnapshotRepository)
	}{
		{config.StorageMemory, func(t *testing.T, repo ports.SnapshotRepository) {
			assert.IsType(t, &memory.SnapshotRepository{}, repo)
		}},
		{config.StorageSQLite, func(t *testing.T, repo ports.SnapshotRepository) {
			assert.IsType(t, &sqlite.SnapshotRepository{}, repo)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.StorageBackend = tt.backend
			repo, cleanup, err := ProvideSnapshotRepository(ctx, cfg, nil, ports.SystemClock{}, logger)
			require.NoError(t, err)
			defer cleanup()
			tt.check(t, repo)

			_, found, err := repo.Load(ctx, "nobody")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestProvideTuning_AppliesServiceSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.SaveMinInterval = 0

	watcher, cleanup, err := ProvideTuning(cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, cfg.EnrichmentTimeout, watcher.Current().EnrichmentTimeout)
	assert.Zero(t, watcher.Current().MinSaveInterval)
}

func TestProvideOptionalServices(t *testing.T) {
	cfg := testConfig(t)
	logger := zap.NewNop()

	jwt, err := ProvideJWTService(cfg, logger)
	require.NoError(t, err)
	assert.Nil(t, jwt)

	cfg.JWTSecret = "secret"
	jwt, err = ProvideJWTService(cfg, logger)
	require.NoError(t, err)
	assert.NotNil(t, jwt)

	assert.Nil(t, ProvideEventPublisher(cfg, nil, logger))
	assert.Nil(t, ProvideCollector(cfg))
	assert.IsType(t, ports.NopMetrics{}, ProvideMetrics(nil))

	cfg.EnableMetrics = true
	assert.NotNil(t, ProvideCollector(cfg))
}
