// Package render turns release blocks into Markdown through a main template
// and header, commit and footer partials.
//
// Rendering is a pure function of the block, the context and the templates.
// Absent commit fields render as empty text rather than failing the block.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/ariel-frischer/chglog/internal/release"
)

// Partial template names referenced from the main template.
const (
	HeaderPartial = "header"
	CommitPartial = "commit"
	FooterPartial = "footer"
)

// Renderer executes a parsed template set.
// A Renderer is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// New parses t. Empty fragments fall back to the built-in templates.
func New(t Templates) (*Renderer, error) {
	t = DefaultTemplates().Merge(t)

	root := template.New("main").Option("missingkey=zero").Funcs(funcMap())
	if _, err := root.Parse(t.Main); err != nil {
		return nil, fmt.Errorf("parsing main template: %w", err)
	}

	partials := []struct {
		name string
		text string
	}{
		{HeaderPartial, t.Header},
		{CommitPartial, t.Commit},
		{FooterPartial, t.Footer},
	}
	for _, p := range partials {
		if _, err := root.New(p.name).Parse(partialText(p.text)); err != nil {
			return nil, fmt.Errorf("parsing %s partial: %w", p.name, err)
		}
	}

	return &Renderer{tmpl: root}, nil
}

// Render writes one block to w. The block is rendered fully before anything
// is written, so a template error never leaves half a block behind.
func (r *Renderer) Render(w io.Writer, b release.Block, ctx Context) error {
	ctx = ctx.normalized()

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, newView(b, &ctx)); err != nil {
		return fmt.Errorf("executing template for block %q: %w", blockLabel(b), err)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// RenderString is a convenience wrapper that renders to a string.
func (r *Renderer) RenderString(b release.Block, ctx Context) (string, error) {
	var sb strings.Builder
	if err := r.Render(&sb, b, ctx); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// partialText drops trailing newlines from a partial and keeps empty
// partials executable.
func partialText(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if strings.TrimSpace(s) == "" {
		return `{{""}}`
	}
	return s
}

func blockLabel(b release.Block) string {
	if b.IsUnreleased() {
		return "unreleased"
	}
	return b.Version
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"join":  strings.Join,
		"trim":  strings.TrimSpace,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"title": capitalizeFirst,
		"default": func(def, v string) string {
			if v == "" {
				return def
			}
			return v
		},
	}
}

// capitalizeFirst returns s with its first rune upper-cased.
func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
