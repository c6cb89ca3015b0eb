package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	domainconfig "cognitivediary/domain/config"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// TuningFile is the YAML document of runtime-adjustable session rules.
// Absent fields keep the base value.
type TuningFile struct {
	Enrichment struct {
		Timeout     string   `yaml:"timeout"`
		Temperature *float64 `yaml:"temperature"`
		MaxTokens   *int     `yaml:"max_tokens"`
	} `yaml:"enrichment"`
	Placement struct {
		DefaultNodeWidth *float64 `yaml:"default_node_width"`
		TransientGap     *float64 `yaml:"transient_gap"`
	} `yaml:"placement"`
	Limits struct {
		MaxNodesPerGraph *int `yaml:"max_nodes_per_graph"`
		MaxContentLength *int `yaml:"max_content_length"`
	} `yaml:"limits"`
	Persistence struct {
		MinSaveInterval string `yaml:"min_save_interval"`
	} `yaml:"persistence"`
}

// Apply overlays the file onto a copy of base
func (t *TuningFile) Apply(base *domainconfig.DomainConfig) (*domainconfig.DomainConfig, error) {
	cfg := *base
	if t.Enrichment.Timeout != "" {
		d, err := time.ParseDuration(t.Enrichment.Timeout)
		if err != nil {
			return nil, fmt.Errorf("enrichment.timeout: %w", err)
		}
		cfg.EnrichmentTimeout = d
	}
	if t.Enrichment.Temperature != nil {
		cfg.Temperature = *t.Enrichment.Temperature
	}
	if t.Enrichment.MaxTokens != nil {
		cfg.MaxTokens = *t.Enrichment.MaxTokens
	}
	if t.Placement.DefaultNodeWidth != nil {
		cfg.DefaultNodeWidth = *t.Placement.DefaultNodeWidth
	}
	if t.Placement.TransientGap != nil {
		cfg.TransientGap = *t.Placement.TransientGap
	}
	if t.Limits.MaxNodesPerGraph != nil {
		cfg.MaxNodesPerGraph = *t.Limits.MaxNodesPerGraph
	}
	if t.Limits.MaxContentLength != nil {
		cfg.MaxContentLength = *t.Limits.MaxContentLength
	}
	if t.Persistence.MinSaveInterval != "" {
		d, err := time.ParseDuration(t.Persistence.MinSaveInterval)
		if err != nil {
			return nil, fmt.Errorf("persistence.min_save_interval: %w", err)
		}
		cfg.MinSaveInterval = d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TuningWatcher serves the current domain rules and reloads them when the
// tuning file changes. Without a file it serves the base rules forever.
type TuningWatcher struct {
	path     string
	base     *domainconfig.DomainConfig
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	mu       sync.RWMutex
	current  *domainconfig.DomainConfig
	onChange []func(*domainconfig.DomainConfig)

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewTuningWatcher loads path (if set) over base and prepares to watch it
func NewTuningWatcher(path string, base *domainconfig.DomainConfig, logger *zap.Logger) (*TuningWatcher, error) {
	w := &TuningWatcher{
		path:     path,
		base:     base,
		current:  base,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}
	if path == "" {
		return w, nil
	}

	cfg, err := loadTuning(path, base)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial tuning: %w", err)
	}
	w.current = cfg

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory too so editors that save by rename are seen.
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch tuning file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("Failed to watch tuning directory", zap.Error(err))
	}
	w.watcher = watcher
	return w, nil
}

// Start begins watching for changes
func (w *TuningWatcher) Start() {
	if w.watcher == nil {
		return
	}
	go w.watchLoop()
	w.logger.Info("Tuning watcher started", zap.String("path", w.path))
}

// Stop stops watching
func (w *TuningWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

// Current returns the active rules. It matches the Tuning hook of editor
// sessions.
func (w *TuningWatcher) Current() *domainconfig.DomainConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback for reloaded rules
func (w *TuningWatcher) OnChange(fn func(*domainconfig.DomainConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

func (w *TuningWatcher) watchLoop() {
	var debounceTimer *time.Timer
	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// reload swaps in the file's rules; an invalid file keeps the current ones
func (w *TuningWatcher) reload() {
	cfg, err := loadTuning(w.path, w.base)
	if err != nil {
		w.logger.Error("Invalid tuning, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.current
	w.current = cfg
	handlers := append([]func(*domainconfig.DomainConfig){}, w.onChange...)
	w.mu.Unlock()

	w.logger.Info("Tuning reloaded",
		zap.Duration("enrichment_timeout", cfg.EnrichmentTimeout),
		zap.Duration("previous_enrichment_timeout", old.EnrichmentTimeout),
		zap.Float64("temperature", cfg.Temperature),
		zap.Duration("min_save_interval", cfg.MinSaveInterval))

	for _, fn := range handlers {
		fn(cfg)
	}
}

func loadTuning(path string, base *domainconfig.DomainConfig) (*domainconfig.DomainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}
	var file TuningFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tuning YAML: %w", err)
	}
	return file.Apply(base)
}
