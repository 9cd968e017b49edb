// Package templates embeds the markdown templates rendered by the CLI.
package templates

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed *.md.tmpl
var files embed.FS

var funcs = template.FuncMap{
	// code wraps s in backticks and escapes table pipes.
	"code": func(s string) string {
		return "`" + strings.ReplaceAll(s, "|", `\|`) + "`"
	},
	"codeList": func(items []string) string {
		return "`" + strings.Join(items, "`, `") + "`"
	},
}

var parsed = template.Must(template.New("").Funcs(funcs).ParseFS(files, "*.md.tmpl"))

// FS returns the embedded template files.
func FS() fs.FS {
	return files
}

// Expression is one row of the expressions table.
type Expression struct {
	Name          string
	Expr          string
	TestFilesOnly bool
}

// Color is one row of the colors table.
type Color struct {
	Key     string
	Value   string
	Default string
}

// PatternsData feeds patterns.md.tmpl.
type PatternsData struct {
	Suffixes    []string
	Expressions []Expression
	Colors      []Color
}

// RenderPatterns writes the pattern reference as markdown.
func RenderPatterns(w io.Writer, data PatternsData) error {
	if err := parsed.ExecuteTemplate(w, "patterns.md.tmpl", data); err != nil {
		return fmt.Errorf("executing patterns template: %w", err)
	}
	return nil
}
