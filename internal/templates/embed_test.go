package templates

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFS_ContainsPatterns(t *testing.T) {
	data, err := fs.ReadFile(FS(), "patterns.md.tmpl")
	require.NoError(t, err)
	require.Contains(t, string(data), "# reintest patterns")
}

func TestRenderPatterns(t *testing.T) {
	var b strings.Builder
	err := RenderPatterns(&b, PatternsData{
		Suffixes: []string{".spec.ts", ".test.ts"},
		Expressions: []Expression{
			{Name: "test", Expr: `a|b`, TestFilesOnly: true},
			{Name: "block-start", Expr: `x`},
		},
		Colors: []Color{{Key: "reintest.testHighlightColor", Value: "#123456", Default: "rgba(1,2,3,0.5)"}},
	})
	require.NoError(t, err)

	got := b.String()
	require.Contains(t, got, "ending in `.spec.ts`, `.test.ts`.")
	require.Contains(t, got, "|---|---|---|\n| test | test files | `a\\|b` |\n| block-start | all files | `x` |\n")
	require.Contains(t, got, "| `reintest.testHighlightColor` | `#123456` | `rgba(1,2,3,0.5)` |")
	require.Contains(t, got, "// @block-end:login")
}

func TestRenderPatterns_NoRows(t *testing.T) {
	var b strings.Builder
	require.NoError(t, RenderPatterns(&b, PatternsData{Suffixes: []string{".spec.ts"}}))

	require.Contains(t, b.String(), "| name | scope | expression |\n|---|---|---|\n\n## Colors")
}
