package decoration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type mapConfig map[string]string

func (m mapConfig) GetString(key, def string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func TestResolveColor(t *testing.T) {
	require.Equal(t, TestHighlight.Default, ResolveColor(nil, TestHighlight))
	require.Equal(t, TestHighlight.Default, ResolveColor(mapConfig{}, TestHighlight))
	require.Equal(t, "#123456", ResolveColor(mapConfig{"reintest.testHighlightColor": "#123456"}, TestHighlight))
	require.Equal(t, TestHighlight.Default, ResolveColor(mapConfig{"reintest.testHighlightColor": "not-a-color"}, TestHighlight))
	require.Equal(t, TestHighlight.Default, ResolveColor(mapConfig{"reintest.testHighlightColor": ""}, TestHighlight))
}

func TestSettings(t *testing.T) {
	require.Len(t, Settings(), 3)
	require.Equal(t, "reintest.blockHighlightColor", BlockHighlight.FullKey())
	require.Equal(t, "rgba(226,100,240,0.1)", DescHighlight.Default)

	s, ok := LookupSetting("descHighlightColor")
	require.True(t, ok)
	require.Equal(t, DescHighlight, s)

	s, ok = LookupSetting("reintest.testHighlightColor")
	require.True(t, ok)
	require.Equal(t, TestHighlight, s)

	_, ok = LookupSetting("fontSize")
	require.False(t, ok)
}

func TestSlot_LazyHandle(t *testing.T) {
	reg := NewRegistry()
	slot := NewSlot(TestHighlight, reg, mapConfig{})

	require.Nil(t, slot.Current())
	require.Equal(t, 0, reg.Created())

	h := slot.Handle()
	require.NotNil(t, h)
	require.Same(t, h, slot.Handle(), "handle is reused while live")
	require.Equal(t, 1, reg.Created())

	opts := h.Options()
	require.Equal(t, TestHighlight.Default, opts.BackgroundColor)
	require.True(t, opts.IsWholeLine)
	require.Equal(t, "2px", opts.BorderRadius)
}

func TestSlot_RebuildReleasesOldHandle(t *testing.T) {
	reg := NewRegistry()
	cfg := mapConfig{}
	slot := NewSlot(TestHighlight, reg, cfg)

	old := slot.Handle()
	cfg["reintest.testHighlightColor"] = "#ff0000"
	next := slot.Rebuild()

	require.NotEqual(t, old.Key(), next.Key())
	require.True(t, old.Disposed())
	require.False(t, reg.IsLive(old))
	require.True(t, reg.IsLive(next))
	require.Equal(t, "#ff0000", next.Options().BackgroundColor)
	require.Equal(t, 1, reg.Live())
}

func TestSlot_RecreatesDisposedHandle(t *testing.T) {
	reg := NewRegistry()
	slot := NewSlot(BlockHighlight, reg, nil)

	first := slot.Handle()
	first.Dispose()

	require.Nil(t, slot.Current())
	second := slot.Handle()
	require.NotEqual(t, first.Key(), second.Key())
	require.False(t, second.Disposed())
}

func TestSlot_Release(t *testing.T) {
	reg := NewRegistry()
	slot := NewSlot(DescHighlight, reg, nil)

	slot.Release()
	h := slot.Handle()
	slot.Release()
	slot.Release()

	require.True(t, h.Disposed())
	require.Equal(t, 0, reg.Live())
}

func TestRegistry_DisposeTwice(t *testing.T) {
	reg := NewRegistry()
	h := reg.CreateDecorationType(Options{BackgroundColor: "#000000"})

	h.Dispose()
	h.Dispose()

	require.Equal(t, 0, reg.Live())
	require.Equal(t, 1, reg.Created())
	require.False(t, reg.IsLive(nil))
}
