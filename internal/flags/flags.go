// Package flags provides feature flags read from the "flags" config section.
// Flags are read-only after initialization; unknown names are off.
package flags

import (
	"maps"
	"sort"

	"github.com/zjrosen/reintest/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagRangeCache caches computed ranges per document text.
	FlagRangeCache = "range-cache"

	// FlagConfigWatch reloads the config file while view or watch runs.
	FlagConfigWatch = "config-watch"

	// FlagMouse enables mouse scrolling and the clickable status bar toggles.
	FlagMouse = "mouse"
)

// Defaults holds the value of every known flag when the config omits it.
var Defaults = map[string]bool{
	FlagRangeCache:  true,
	FlagConfigWatch: true,
	FlagMouse:       true,
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map layered over Defaults.
func New(configured map[string]bool) *Registry {
	flags := maps.Clone(Defaults)
	maps.Copy(flags, configured)
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.String())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags and on a nil registry.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name)
		return false
	}
	return value
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return make(map[string]bool)
	}
	return maps.Clone(r.flags)
}

// String lists the flags as name=value, sorted by name.
func (r *Registry) String() string {
	all := r.All()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	s := ""
	for i, name := range names {
		if i > 0 {
			s += " "
		}
		if all[name] {
			s += name + "=on"
		} else {
			s += name + "=off"
		}
	}
	return s
}
