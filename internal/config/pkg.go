package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ariel-frischer/chglog/internal/render"
)

// DefaultPackagePath is read when no --pkg flag is given and the file exists.
const DefaultPackagePath = "package.json"

// Package is the metadata chglog reads from package.json.
type Package struct {
	Name       string
	Version    string
	Homepage   string
	Repository Repository
}

// Repository locates the hosted repository of a package.
type Repository struct {
	// Host includes the scheme, e.g. "https://github.com".
	Host  string
	Owner string
	Name  string
}

// URL returns the browsable repository URL, or "" when incomplete.
func (r Repository) URL() string {
	if r.Host == "" || r.Owner == "" || r.Name == "" {
		return ""
	}
	return r.Host + "/" + r.Owner + "/" + r.Name
}

// ReadPackage reads package metadata from the JSON file at path.
func ReadPackage(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if !gjson.ValidBytes(data) {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("invalid JSON")}
	}

	pkg := &Package{
		Name:     gjson.GetBytes(data, "name").String(),
		Version:  gjson.GetBytes(data, "version").String(),
		Homepage: gjson.GetBytes(data, "homepage").String(),
	}

	repo := gjson.GetBytes(data, "repository")
	raw := repo.String()
	if repo.IsObject() {
		raw = repo.Get("url").String()
	}
	if raw != "" {
		pkg.Repository = ParseRepositoryURL(raw)
	}
	return pkg, nil
}

// Context converts the metadata into template context values. Links are
// enabled when the repository location is known.
func (p *Package) Context() render.Context {
	link := p.Repository.URL() != ""
	return render.Context{
		PackageName:    p.Name,
		Version:        p.Version,
		Host:           p.Repository.Host,
		Owner:          p.Repository.Owner,
		Repository:     p.Repository.Name,
		LinkReferences: &link,
	}
}

// shorthandHosts maps npm repository shorthands to hosts.
var shorthandHosts = map[string]string{
	"github":    "https://github.com",
	"gitlab":    "https://gitlab.com",
	"bitbucket": "https://bitbucket.org",
}

// ParseRepositoryURL understands the repository forms found in package.json:
// full URLs (optionally prefixed with "git+"), scp-like "git@host:owner/repo",
// "github:owner/repo" shorthands and bare "owner/repo" (GitHub).
func ParseRepositoryURL(raw string) Repository {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")

	var host, path string
	switch {
	case strings.Contains(s, "://"):
		u, err := url.Parse(s)
		if err != nil {
			return Repository{}
		}
		scheme := u.Scheme
		if scheme != "http" && scheme != "https" {
			scheme = "https"
		}
		host = scheme + "://" + u.Hostname()
		path = u.Path
	case strings.HasPrefix(s, "git@"):
		rest := strings.TrimPrefix(s, "git@")
		i := strings.Index(rest, ":")
		if i < 0 {
			return Repository{}
		}
		host = "https://" + rest[:i]
		path = rest[i+1:]
	default:
		path = s
		host = shorthandHosts["github"]
		if i := strings.Index(s, ":"); i > 0 {
			h, ok := shorthandHosts[s[:i]]
			if !ok {
				return Repository{}
			}
			host = h
			path = s[i+1:]
		}
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Repository{Host: host}
	}
	return Repository{Host: host, Owner: parts[0], Name: parts[1]}
}
