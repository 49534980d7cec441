package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultThresholdsPath is where the default store looks for its document.
const DefaultThresholdsPath = "config/health_thresholds.json"

// Source loads a thresholds document from wherever it lives.
type Source interface {
	Load(ctx context.Context) (*Config, error)
}

// FileSource reads a JSON or YAML document from disk, chosen by extension.
type FileSource struct {
	Path string
}

func (f FileSource) Load(ctx context.Context) (*Config, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read thresholds file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return DecodeJSON(data)
	}
}

// FallbackSource tries each source in order and returns the first success.
type FallbackSource []Source

func (fs FallbackSource) Load(ctx context.Context) (*Config, error) {
	var errs []error
	for _, s := range fs {
		cfg, err := s.Load(ctx)
		if err == nil {
			return cfg, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no thresholds source configured")
	}
	return nil, errors.Join(errs...)
}

// Store caches the active Config. Readers never see a partially updated
// config: every load builds a fresh *Config and swaps the pointer.
type Store struct {
	source  Source
	logger  *slog.Logger
	current atomic.Pointer[Config]

	mu    sync.Mutex
	hooks []func(*Config)
}

// NewStore creates a store reading from source. A nil logger uses slog.Default.
func NewStore(source Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		source: source,
		logger: logger.With(slog.String("component", "health_config")),
	}
}

// Load reads the source and returns the result without caching it. Any read,
// parse or validation failure yields DefaultConfig.
func (s *Store) Load(ctx context.Context) *Config {
	if s.source == nil {
		return DefaultConfig()
	}
	cfg, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Warn("using default health thresholds", slog.String("error", err.Error()))
		return DefaultConfig()
	}
	return cfg
}

// Get returns the cached config, loading it on first use.
func (s *Store) Get() *Config {
	if cfg := s.current.Load(); cfg != nil {
		return cfg
	}
	cfg := s.Load(context.Background())
	if s.current.CompareAndSwap(nil, cfg) {
		s.logger.Info("health thresholds loaded", slog.String("version", cfg.Version))
	}
	return s.current.Load()
}

// Reload forces a fresh load, replaces the cache and runs reload hooks.
func (s *Store) Reload(ctx context.Context) *Config {
	cfg := s.Load(ctx)
	s.current.Store(cfg)
	s.logger.Info("health thresholds reloaded", slog.String("version", cfg.Version))

	s.mu.Lock()
	hooks := append([]func(*Config){}, s.hooks...)
	s.mu.Unlock()
	for _, h := range hooks {
		h(cfg)
	}
	return cfg
}

// Set installs cfg directly, bypassing the source.
func (s *Store) Set(cfg *Config) {
	s.current.Store(cfg)
}

// OnReload registers fn to run after every Reload.
func (s *Store) OnReload(fn func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

var defaultStore atomic.Pointer[Store]

func init() {
	defaultStore.Store(NewStore(FileSource{Path: DefaultThresholdsPath}, nil))
}

// DefaultStore returns the process-wide store used by the package-level functions.
func DefaultStore() *Store {
	return defaultStore.Load()
}

// SetDefaultStore replaces the process-wide store.
func SetDefaultStore(s *Store) {
	defaultStore.Store(s)
}

// LoadConfig reads the process-wide source without touching the cache.
func LoadConfig() *Config {
	return DefaultStore().Load(context.Background())
}

// GetConfig returns the process-wide cached config.
func GetConfig() *Config {
	return DefaultStore().Get()
}

// ReloadConfig forces the process-wide config to be re-read.
func ReloadConfig() *Config {
	return DefaultStore().Reload(context.Background())
}
