// Package config provides configuration types, defaults, loading and
// persistence for reintest.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/reintest/internal/annotate"
	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/flags"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/tracing"
)

// LocalConfigPath is checked before the user config directory.
const LocalConfigPath = ".reintest/config.yaml"

// Config holds all configuration options for reintest.
type Config struct {
	// Reintest holds the highlight colors, keyed like the editor settings.
	Reintest         ColorsConfig   `mapstructure:"reintest"`
	TestFileSuffixes []string       `mapstructure:"test_file_suffixes"`
	CacheTTL         time.Duration  `mapstructure:"cache_ttl"`
	UI               UIConfig       `mapstructure:"ui"`
	Watch            WatchConfig    `mapstructure:"watch"`
	Tracing          tracing.Config `mapstructure:"tracing"`
	// Flags toggles optional behavior; see the flags package for names.
	Flags map[string]bool `mapstructure:"flags"`
}

// ColorsConfig holds the three highlight colors.
type ColorsConfig struct {
	TestHighlightColor  string `mapstructure:"testHighlightColor"`
	DescHighlightColor  string `mapstructure:"descHighlightColor"`
	BlockHighlightColor string `mapstructure:"blockHighlightColor"`
}

// UIConfig holds terminal viewer options.
type UIConfig struct {
	// Mode forces "light" or "dark" blending. Empty means detect.
	Mode        string `mapstructure:"mode"`
	LineNumbers bool   `mapstructure:"line_numbers"`
	TabWidth    int    `mapstructure:"tab_width"`
}

// WatchConfig holds file watching options.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		Reintest: ColorsConfig{
			TestHighlightColor:  decoration.TestHighlight.Default,
			DescHighlightColor:  decoration.DescHighlight.Default,
			BlockHighlightColor: decoration.BlockHighlight.Default,
		},
		TestFileSuffixes: append([]string(nil), annotate.DefaultTestFileSuffixes...),
		CacheTTL:         5 * time.Minute,
		UI: UIConfig{
			LineNumbers: true,
			TabWidth:    4,
		},
		Watch: WatchConfig{
			Debounce: 150 * time.Millisecond,
		},
		Tracing: tc,
		Flags:   maps.Clone(flags.Defaults),
	}
}

// DefaultTracesFilePath returns ~/.config/reintest/traces/traces.jsonl or
// an empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "reintest", "traces", "traces.jsonl")
}

// UserConfigDir returns ~/.config/reintest.
func UserConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "reintest")
}

// Validate checks the configuration for errors.
func Validate(cfg Config) error {
	colors := map[string]string{
		decoration.TestHighlight.FullKey():  cfg.Reintest.TestHighlightColor,
		decoration.DescHighlight.FullKey():  cfg.Reintest.DescHighlightColor,
		decoration.BlockHighlight.FullKey(): cfg.Reintest.BlockHighlightColor,
	}
	for _, s := range decoration.Settings() {
		if v := colors[s.FullKey()]; v != "" {
			if _, err := decoration.ParseColor(v); err != nil {
				return fmt.Errorf("%s: %w", s.FullKey(), err)
			}
		}
	}
	for _, suffix := range cfg.TestFileSuffixes {
		if suffix == "" {
			return fmt.Errorf("test_file_suffixes must not contain empty values")
		}
	}
	switch cfg.UI.Mode {
	case "", "light", "dark":
	default:
		return fmt.Errorf("ui.mode must be \"light\", \"dark\" or empty, got %q", cfg.UI.Mode)
	}
	if cfg.UI.TabWidth < 0 {
		return fmt.Errorf("ui.tab_width must not be negative, got %d", cfg.UI.TabWidth)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	switch tc.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
	}

	if tc.Enabled {
		if tc.Exporter == tracing.ExporterFile && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == tracing.ExporterOTLP && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Reintest Configuration

# Highlight colors. Accepted formats: #rgb, #rrggbb, #rrggbbaa,
# rgb(r,g,b) and rgba(r,g,b,a). Invalid values fall back to the default.
reintest:
  testHighlightColor: "rgba(123,169,255,0.18)"   # test(...), test.beforeEach, test.beforeAll
  descHighlightColor: "rgba(226,100,240,0.1)"    # test.describe(...)
  blockHighlightColor: "rgba(100,240,100,0.05)"  # // @block-start:id ... // @block-end:id

# File name suffixes that mark a test file
test_file_suffixes:
  - .spec.ts

# How long computed ranges for an unchanged text stay cached
cache_ttl: 5m

# Terminal viewer
ui:
  # mode: dark        # Force "light" or "dark" color blending (default: detect)
  line_numbers: true
  tab_width: 4

# File watching (view and watch commands)
watch:
  debounce: 150ms

# Feature flags
# flags:
#   range-cache: true    # cache computed ranges per text
#   config-watch: true   # reload this file while view or watch runs
#   mouse: true          # mouse scrolling and clickable toggles in view

# Tracing of annotation passes
# tracing:
#   enabled: false                 # default: false
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/reintest/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
