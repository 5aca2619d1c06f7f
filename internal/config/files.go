package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ariel-frischer/chglog/internal/commit"
	"github.com/ariel-frischer/chglog/internal/gitlog"
	"github.com/ariel-frischer/chglog/internal/preset"
	"github.com/ariel-frischer/chglog/internal/render"
)

// LoadError reports an option file that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// tomlParser adapts BurntSushi/toml to koanf's Parser interface.
type tomlParser struct{}

func (tomlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if err := toml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (tomlParser) Marshal(m map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parserFor picks the koanf parser for a file by its extension.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return tomlParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q (expected .yml, .yaml, .json or .toml)", filepath.Ext(path))
	}
}

func loadInto(k *koanf.Koanf, path string) error {
	p, err := parserFor(path)
	if err != nil {
		return err
	}
	return k.Load(file.Provider(path), p)
}

// LoadFile decodes the option file at path into target, which must be a
// pointer to a struct with koanf tags.
func LoadFile(path string, target interface{}) error {
	k := koanf.New(".")
	if err := loadInto(k, path); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	if err := k.Unmarshal("", target); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	return nil
}

// LoadContext reads template context values.
func LoadContext(path string) (render.Context, error) {
	var c render.Context
	err := LoadFile(path, &c)
	return c, err
}

// LoadGitOptions reads git source options.
func LoadGitOptions(path string) (gitlog.Options, error) {
	var o gitlog.Options
	err := LoadFile(path, &o)
	return o, err
}

// LoadParserOptions reads commit parser options.
func LoadParserOptions(path string) (commit.ParserOptions, error) {
	var o commit.ParserOptions
	err := LoadFile(path, &o)
	return o, err
}

// LoadWriterOptions reads writer options: grouping, sorting, writer-stage
// transforms and inline templates.
func LoadWriterOptions(path string) (preset.WriterSpec, error) {
	var o preset.WriterSpec
	err := LoadFile(path, &o)
	return o, err
}
