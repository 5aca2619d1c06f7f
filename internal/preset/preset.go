// Package preset bundles parser options, transforms, writer options and
// templates under a name.
//
// Built-in presets are declared in embedded preset.yaml manifests next to
// their template files. Further presets can be added with Register.
package preset

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/chglog/internal/commit"
	"github.com/ariel-frischer/chglog/internal/release"
	"github.com/ariel-frischer/chglog/internal/render"
	"github.com/ariel-frischer/chglog/internal/transform"
)

//go:embed presets
var presetFS embed.FS

// DefaultName is the manifest used when no preset is requested.
const DefaultName = "default"

// Preset is a resolved, ready-to-use configuration bundle.
type Preset struct {
	Name   string
	Parser commit.ParserOptions
	// Transform is the parser-stage hook; Writer.Transform is the writer stage.
	Transform transform.Func
	Writer    release.Options
	Templates render.Templates
}

// Loader produces a preset. It may do I/O and must honour ctx.
type Loader func(ctx context.Context) (*Preset, error)

// UnknownPresetError reports a preset name with no registered loader.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("Preset: %q does not exist", e.Name)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Loader{
		"angular": embeddedLoader("angular"),
		"jquery":  embeddedLoader("jquery"),
	}
)

// Register adds or replaces the loader for name.
func Register(name string, l Loader) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = l
}

// Names lists the registered preset names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve loads the preset registered under name. An empty name resolves to
// the default preset.
func Resolve(ctx context.Context, name string) (*Preset, error) {
	if name == "" {
		return Default(), nil
	}

	registryMu.RLock()
	l, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownPresetError{Name: name}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := l(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading preset %q: %w", name, err)
	}
	return p, nil
}

// Default returns the preset used when none is named: conventional headers
// grouped by type, with non-conventional commits kept under "Other Changes".
func Default() *Preset {
	p, err := load(DefaultName)
	if err != nil {
		// The manifest is embedded at build time; a failure is a build defect.
		panic(fmt.Sprintf("preset: loading embedded default: %v", err))
	}
	return p
}

func embeddedLoader(name string) Loader {
	return func(context.Context) (*Preset, error) {
		return load(name)
	}
}

// load decodes presets/<name>/preset.yaml and the template files it names.
func load(name string) (*Preset, error) {
	dir := path.Join("presets", name)

	data, err := presetFS.ReadFile(path.Join(dir, "preset.yaml"))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	return FromManifest(m, func(file string) (string, error) {
		b, err := presetFS.ReadFile(path.Join(dir, file))
		if err != nil {
			return "", fmt.Errorf("reading template %s: %w", file, err)
		}
		return string(b), nil
	})
}

// FromManifest builds a preset from m, reading template files with read.
// Fragments the manifest does not name use the built-in templates.
func FromManifest(m Manifest, read func(file string) (string, error)) (*Preset, error) {
	p := &Preset{
		Name:      m.Name,
		Parser:    commit.DefaultParserOptions().Merge(m.Parser),
		Templates: render.DefaultTemplates(),
	}

	fn, err := m.Transform.Func()
	if err != nil {
		return nil, err
	}
	p.Transform = fn

	files := []struct {
		name string
		dst  *string
	}{
		{m.Templates.Main, &p.Templates.Main},
		{m.Templates.Header, &p.Templates.Header},
		{m.Templates.Commit, &p.Templates.Commit},
		{m.Templates.Footer, &p.Templates.Footer},
	}
	for _, f := range files {
		if f.name == "" {
			continue
		}
		text, err := read(f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = text
	}

	if err := m.Writer.ApplyTo(p); err != nil {
		return nil, fmt.Errorf("preset %s writer options: %w", m.Name, err)
	}
	return p, nil
}
