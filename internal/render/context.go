package render

import "strings"

// Context is the static metadata shared by every block of a run.
type Context struct {
	PackageName string `koanf:"package_name" yaml:"package_name"`
	// Version labels the unreleased block when set (e.g. from package.json).
	Version string `koanf:"version" yaml:"version"`
	Title   string `koanf:"title" yaml:"title"`
	// Date labels the unreleased block; blocks with a key commit use its date.
	Date       string `koanf:"date" yaml:"date"`
	Host       string `koanf:"host" yaml:"host"`
	Owner      string `koanf:"owner" yaml:"owner"`
	Repository string `koanf:"repository" yaml:"repository"`
	RepoURL    string `koanf:"repo_url" yaml:"repo_url"`
	// LinkReferences turns hashes and issues into links. Nil keeps the
	// inherited setting; links are forced off when no repository URL can be
	// derived.
	LinkReferences *bool             `koanf:"link_references" yaml:"link_references"`
	IssuePath      string            `koanf:"issue_path" yaml:"issue_path"`
	CommitPath     string            `koanf:"commit_path" yaml:"commit_path"`
	Extra          map[string]string `koanf:"extra" yaml:"extra"`
}

// Links reports whether references are rendered as links.
func (c Context) Links() bool {
	return c.LinkReferences != nil && *c.LinkReferences
}

// Merge overlays the non-empty values of o onto c. A set LinkReferences
// wins even when false.
func (c Context) Merge(o Context) Context {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.PackageName, o.PackageName)
	set(&c.Version, o.Version)
	set(&c.Title, o.Title)
	set(&c.Date, o.Date)
	set(&c.Host, o.Host)
	set(&c.Owner, o.Owner)
	set(&c.Repository, o.Repository)
	set(&c.RepoURL, o.RepoURL)
	set(&c.IssuePath, o.IssuePath)
	set(&c.CommitPath, o.CommitPath)
	if o.LinkReferences != nil {
		link := *o.LinkReferences
		c.LinkReferences = &link
	}
	if len(o.Extra) > 0 {
		merged := make(map[string]string, len(c.Extra)+len(o.Extra))
		for k, v := range c.Extra {
			merged[k] = v
		}
		for k, v := range o.Extra {
			merged[k] = v
		}
		c.Extra = merged
	}
	return c
}

// normalized fills derived values: the repository URL from host, owner and
// repository, default link paths, and the link switch.
func (c Context) normalized() Context {
	if c.IssuePath == "" {
		c.IssuePath = "issues"
	}
	if c.CommitPath == "" {
		c.CommitPath = "commit"
	}
	if c.Host != "" && !strings.Contains(c.Host, "://") {
		c.Host = "https://" + c.Host
	}
	c.Host = strings.TrimSuffix(c.Host, "/")
	if c.RepoURL == "" && c.Host != "" && c.Owner != "" && c.Repository != "" {
		c.RepoURL = c.Host + "/" + c.Owner + "/" + c.Repository
	}
	c.RepoURL = strings.TrimSuffix(c.RepoURL, "/")
	if c.RepoURL == "" {
		c.LinkReferences = nil
	}
	return c
}
