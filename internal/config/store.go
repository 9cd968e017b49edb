package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/watcher"
)

// Store is a viper-backed configuration source. It is safe for concurrent
// use; reloads happen under its lock.
type Store struct {
	mu sync.RWMutex
	v  *viper.Viper
}

// SetDefaults registers Defaults() on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(decoration.TestHighlight.FullKey(), d.Reintest.TestHighlightColor)
	v.SetDefault(decoration.DescHighlight.FullKey(), d.Reintest.DescHighlightColor)
	v.SetDefault(decoration.BlockHighlight.FullKey(), d.Reintest.BlockHighlightColor)
	v.SetDefault("test_file_suffixes", d.TestFileSuffixes)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("ui.mode", d.UI.Mode)
	v.SetDefault("ui.line_numbers", d.UI.LineNumbers)
	v.SetDefault("ui.tab_width", d.UI.TabWidth)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	for name, on := range d.Flags {
		v.SetDefault("flags."+name, on)
	}
}

// Load resolves the config file and reads it into a new Store.
//
// Lookup order when explicitPath is empty:
//  1. .reintest/config.yaml (current directory)
//  2. ~/.config/reintest/config.yaml (user config)
//
// A missing file is not an error; defaults apply.
func Load(explicitPath string) (*Store, error) {
	v := viper.New()
	SetDefaults(v)

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else if _, err := os.Stat(LocalConfigPath); err == nil {
		v.SetConfigFile(LocalConfigPath)
	} else {
		if dir := UserConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(explicitPath != "" && errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		log.Debug(log.CatConfig, "no config file found, using defaults")
	} else {
		log.Info(log.CatConfig, "loaded config", "path", v.ConfigFileUsed())
	}

	return NewStore(v), nil
}

// NewStore wraps an already configured viper instance.
func NewStore(v *viper.Viper) *Store {
	return &Store{v: v}
}

// Path returns the config file in use, or "" when running on defaults.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.ConfigFileUsed()
}

// GetString returns the value at key, or def when unset or empty.
func (s *Store) GetString(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.v.IsSet(key) {
		return def
	}
	if val := s.v.GetString(key); val != "" {
		return val
	}
	return def
}

// Config decodes the current values.
func (s *Store) Config() (Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return Defaults(), fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// snapshot returns every leaf key with its string value. Caller holds mu.
func (s *Store) snapshot() map[string]string {
	out := make(map[string]string)
	for _, k := range s.v.AllKeys() {
		out[k] = fmt.Sprint(s.v.Get(k))
	}
	return out
}

// Reload re-reads the config file and returns the keys whose values
// changed. Color keys are reported in their qualified form, e.g.
// "reintest.testHighlightColor".
func (s *Store) Reload() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.snapshot()
	if err := s.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reloading config: %w", err)
	}
	after := s.snapshot()

	var changed []string
	for k, v := range after {
		if before[k] != v {
			changed = append(changed, canonicalKey(k))
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			changed = append(changed, canonicalKey(k))
		}
	}
	sort.Strings(changed)
	return changed, nil
}

// canonicalKey restores the casing of known settings; viper lowercases keys.
func canonicalKey(k string) string {
	for _, s := range decoration.Settings() {
		if strings.EqualFold(k, s.FullKey()) {
			return s.FullKey()
		}
	}
	return k
}

// Watch reloads the config file whenever it changes on disk and sends the
// changed keys. The channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context, debounce time.Duration) (<-chan []string, error) {
	path := s.Path()
	if path == "" {
		return nil, fmt.Errorf("no config file to watch")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	w, err := watcher.New(watcher.Config{Paths: []string{abs}, DebounceDur: debounce})
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, fmt.Errorf("starting config watcher: %w", err)
	}

	out := make(chan []string, 1)
	go func() {
		defer close(out)
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				keys, err := s.Reload()
				if err != nil {
					log.ErrorErr(log.CatConfig, "config reload failed", err, "path", abs)
					continue
				}
				if len(keys) == 0 {
					continue
				}
				log.Info(log.CatConfig, "config changed", "keys", strings.Join(keys, ","))
				select {
				case out <- keys:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
