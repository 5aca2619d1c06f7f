package render

import (
	"embed"
	"fmt"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates is the three-part template set plus an optional footer.
// Main renders one block and pulls in the partials with
// {{template "header" .}}, {{template "commit" .}} and {{template "footer" .}}.
type Templates struct {
	Main   string `koanf:"main_template" yaml:"main_template"`
	Header string `koanf:"header_partial" yaml:"header_partial"`
	Commit string `koanf:"commit_partial" yaml:"commit_partial"`
	Footer string `koanf:"footer_partial" yaml:"footer_partial"`
}

// Merge overlays the non-empty fragments of o onto t.
func (t Templates) Merge(o Templates) Templates {
	if o.Main != "" {
		t.Main = o.Main
	}
	if o.Header != "" {
		t.Header = o.Header
	}
	if o.Commit != "" {
		t.Commit = o.Commit
	}
	if o.Footer != "" {
		t.Footer = o.Footer
	}
	return t
}

// DefaultTemplates returns the built-in Markdown templates.
func DefaultTemplates() Templates {
	read := func(name string) string {
		data, err := templateFS.ReadFile("templates/" + name)
		if err != nil {
			// The files are embedded at build time; a miss is a build defect.
			panic(fmt.Sprintf("render: missing embedded template %s: %v", name, err))
		}
		return string(data)
	}
	return Templates{
		Main:   read("main.tmpl"),
		Header: read("header.tmpl"),
		Commit: read("commit.tmpl"),
		Footer: read("footer.tmpl"),
	}
}
