package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_CommandKeys(t *testing.T) {
	k := DefaultKeyMap()

	require.Equal(t, []string{"t"}, k.ToggleTests.Keys())
	require.Equal(t, []string{"b"}, k.ToggleBlocks.Keys())
	require.Equal(t, []string{"r"}, k.Reload.Keys())
	require.Equal(t, []string{"q", "ctrl+c"}, k.Quit.Keys())
}

func TestDefaultKeyMap_HelpText(t *testing.T) {
	k := DefaultKeyMap()

	require.Equal(t, "toggle test highlighting", k.ToggleTests.Help().Desc)
	require.Equal(t, "toggle block highlighting", k.ToggleBlocks.Help().Desc)
}

func TestDefaultKeyMap_NoDuplicateKeys(t *testing.T) {
	k := DefaultKeyMap()
	seen := make(map[string]string)

	for _, group := range k.FullHelp() {
		for _, b := range group {
			for _, name := range b.Keys() {
				prev, dup := seen[name]
				require.False(t, dup, "key %q bound to both %q and %q", name, prev, b.Help().Desc)
				seen[name] = b.Help().Desc
			}
		}
	}
}

func TestShortHelp_SubsetOfFullHelp(t *testing.T) {
	k := DefaultKeyMap()
	var all []key.Binding
	for _, group := range k.FullHelp() {
		all = append(all, group...)
	}

	for _, b := range k.ShortHelp() {
		require.Contains(t, all, b)
	}
}
