package decoration

import (
	"github.com/zjrosen/reintest/internal/log"
)

// Section is the configuration namespace holding every color setting.
const Section = "reintest"

// Setting names one configurable highlight color.
type Setting struct {
	Key     string
	Default string
}

// FullKey returns the key qualified with Section.
func (s Setting) FullKey() string {
	return Section + "." + s.Key
}

// The recognized color settings.
var (
	TestHighlight  = Setting{Key: "testHighlightColor", Default: "rgba(123,169,255,0.18)"}
	DescHighlight  = Setting{Key: "descHighlightColor", Default: "rgba(226,100,240,0.1)"}
	BlockHighlight = Setting{Key: "blockHighlightColor", Default: "rgba(100,240,100,0.05)"}
)

// Settings lists every recognized setting.
func Settings() []Setting {
	return []Setting{TestHighlight, DescHighlight, BlockHighlight}
}

// LookupSetting finds a setting by its short or fully qualified key.
func LookupSetting(key string) (Setting, bool) {
	for _, s := range Settings() {
		if key == s.Key || key == s.FullKey() {
			return s, true
		}
	}
	return Setting{}, false
}

// Config reads string values with a fallback.
type Config interface {
	GetString(key, def string) string
}

// ResolveColor reads a setting, falling back to its default when the value
// is empty or not a color.
func ResolveColor(cfg Config, s Setting) string {
	if cfg == nil {
		return s.Default
	}
	raw := cfg.GetString(s.FullKey(), s.Default)
	if raw == "" {
		return s.Default
	}
	if _, err := ParseColor(raw); err != nil {
		log.Warn(log.CatStyle, "invalid color, using default", "key", s.FullKey(), "value", raw, "error", err)
		return s.Default
	}
	return raw
}

// Slot owns the current decoration type for one setting. Handle creates it
// lazily; Rebuild swaps it for a fresh one.
type Slot struct {
	setting Setting
	factory Factory
	config  Config
	current Type
}

// NewSlot creates an empty slot. No type is created until first use.
func NewSlot(setting Setting, factory Factory, cfg Config) *Slot {
	return &Slot{setting: setting, factory: factory, config: cfg}
}

// Setting returns the setting backing this slot.
func (s *Slot) Setting() Setting { return s.setting }

// Current returns the live type or nil.
func (s *Slot) Current() Type {
	if s.current != nil && s.current.Disposed() {
		return nil
	}
	return s.current
}

// Handle returns the live type, creating it if absent or disposed.
func (s *Slot) Handle() Type {
	if t := s.Current(); t != nil {
		return t
	}
	s.current = s.factory.CreateDecorationType(s.options())
	return s.current
}

// Rebuild releases the current type and acquires a new one reflecting the
// configuration as it is now.
func (s *Slot) Rebuild() Type {
	s.Release()
	return s.Handle()
}

// Release disposes the current type, if any.
func (s *Slot) Release() {
	if s.current != nil {
		s.current.Dispose()
		s.current = nil
	}
}

func (s *Slot) options() Options {
	return Options{
		BackgroundColor: ResolveColor(s.config, s.setting),
		IsWholeLine:     true,
		BorderRadius:    DefaultBorderRadius,
	}
}
