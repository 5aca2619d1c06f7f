// Package config loads chglog settings and option files using koanf.
//
// Settings are layered with priority: flags > environment (CHGLOG_*) >
// project config (.chglog.yml) > user config (~/.config/chglog/config.yml) >
// defaults. Option files named by flags (--context, --parser-opts, ...) are
// loaded on their own, in YAML, JSON or TOML chosen by file extension.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment variable overrides.
const EnvPrefix = "CHGLOG_"

// Settings are the persistent defaults for a chglog run. Every field can also
// be set by the flag of the same name.
type Settings struct {
	Preset    string `koanf:"preset"`
	Infile    string `koanf:"infile"`
	Outfile   string `koanf:"outfile"`
	Append    bool   `koanf:"append"`
	AllBlocks bool   `koanf:"all_blocks"`
	Verbose   bool   `koanf:"verbose"`
	// Repo is any path inside the repository to read.
	Repo string `koanf:"repo"`
	// Pkg is the package.json to read metadata from.
	Pkg string `koanf:"pkg"`

	Context           string `koanf:"context"`
	GitRawCommitsOpts string `koanf:"git_raw_commits_opts"`
	ParserOpts        string `koanf:"parser_opts"`
	WriterOpts        string `koanf:"writer_opts"`

	BufferSize int `koanf:"buffer_size" validate:"gte=0,lte=4096"`
}

// LoadOptions configures how settings are loaded.
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .chglog.yml).
	ProjectConfigPath string
	// UserConfigPath overrides the user config path; "-" skips the user layer.
	UserConfigPath string
}

// Load loads settings from defaults, user config, project config and environment.
func Load() (*Settings, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions loads settings with custom config paths.
func LoadWithOptions(opts LoadOptions) (*Settings, error) {
	k := koanf.New(".")

	loadDefaults(k)

	userPath := opts.UserConfigPath
	if userPath == "" {
		userPath, _ = UserConfigPath()
	}
	if userPath != "-" {
		if err := loadLayer(k, userPath, "user"); err != nil {
			return nil, err
		}
	}

	projectPath := opts.ProjectConfigPath
	if projectPath == "" {
		projectPath = ProjectConfigPath
	}
	if err := loadLayer(k, projectPath, "project"); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := ValidateSettings(&s, projectPath); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &s, nil
}

// ProjectConfigPath is the project-level config file, relative to the working directory.
const ProjectConfigPath = ".chglog.yml"

// UserConfigPath returns the user-level config file path, following the
// platform's config directory convention.
func UserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chglog", "config.yml"), nil
}

func loadDefaults(k *koanf.Koanf) {
	for key, value := range defaults() {
		k.Set(key, value)
	}
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"repo":        ".",
		"buffer_size": 16,
	}
}

// loadLayer merges the config file at path into k. A missing file is skipped.
func loadLayer(k *koanf.Koanf, path, configType string) error {
	if !fileExists(path) {
		return nil
	}
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := loadInto(k, path); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys.
// Example: CHGLOG_ALL_BLOCKS -> all_blocks
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}
