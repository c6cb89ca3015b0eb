package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	domainconfig "cognitivediary/domain/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, 30*time.Second, cfg.EnrichmentTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "sqlite", env: map[string]string{"STORAGE_BACKEND": "sqlite"}},
		{name: "unknown backend", env: map[string]string{"STORAGE_BACKEND": "postgres"}, wantErr: true},
		{name: "production without secret", env: map[string]string{"ENVIRONMENT": "production", "LLM_API_KEY": "k"}, wantErr: true},
		{name: "production", env: map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "s", "LLM_API_KEY": "k"}},
		{name: "millisecond interval", env: map[string]string{"SAVE_MIN_INTERVAL": "250"}},
		{name: "zero timeout", env: map[string]string{"ENRICHMENT_TIMEOUT": "0s"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("D1", "1500")
	t.Setenv("D2", "2s")
	t.Setenv("D3", "soon")

	assert.Equal(t, 1500*time.Millisecond, getEnvDuration("D1", 0))
	assert.Equal(t, 2*time.Second, getEnvDuration("D2", 0))
	assert.Equal(t, time.Minute, getEnvDuration("D3", time.Minute))
}

func TestTuningFile_Apply(t *testing.T) {
	base := domainconfig.DefaultDomainConfig()
	temp := 0.2
	var file TuningFile
	file.Enrichment.Timeout = "5s"
	file.Enrichment.Temperature = &temp

	cfg, err := file.Apply(base)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.EnrichmentTimeout)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, base.MaxTokens, cfg.MaxTokens)
	assert.Equal(t, 30*time.Second, base.EnrichmentTimeout, "base untouched")

	bad := 3.0
	file.Enrichment.Temperature = &bad
	_, err = file.Apply(base)
	assert.Error(t, err)
}

func TestTuningWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enrichment:\n  timeout: 10s\n"), 0o644))

	w, err := NewTuningWatcher(path, domainconfig.DefaultDomainConfig(), zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()
	assert.Equal(t, 10*time.Second, w.Current().EnrichmentTimeout)

	changed := make(chan *domainconfig.DomainConfig, 1)
	w.OnChange(func(cfg *domainconfig.DomainConfig) { changed <- cfg })
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte("enrichment:\n  timeout: 20s\npersistence:\n  min_save_interval: 1s\n"), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, 20*time.Second, cfg.EnrichmentTimeout)
		assert.Equal(t, time.Second, w.Current().MinSaveInterval)
	case <-time.After(3 * time.Second):
		t.Fatal("tuning was not reloaded")
	}
}

func TestTuningWatcher_InvalidReloadKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enrichment:\n  max_tokens: 500\n"), 0o644))
	w, err := NewTuningWatcher(path, domainconfig.DefaultDomainConfig(), zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("enrichment: [oops"), 0o644))
	w.reload()

	assert.Equal(t, 500, w.Current().MaxTokens)
}

func TestTuningWatcher_NoFile(t *testing.T) {
	base := domainconfig.DefaultDomainConfig()
	w, err := NewTuningWatcher("", base, zap.NewNop())
	require.NoError(t, err)
	w.Start()
	w.Stop()
	assert.Same(t, base, w.Current())
}
