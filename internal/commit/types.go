package commit

import (
	"strings"
	"time"
)

// Person identifies a commit author or committer.
type Person struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// String formats the person the way git prints it: "Name <email>".
func (p Person) String() string {
	if p.Email == "" {
		return p.Name
	}
	return p.Name + " <" + p.Email + ">"
}

// Raw is a commit as produced by the version-control source.
// Tags holds the ref decoration in `git log %d` form, for example
// " (HEAD -> main, tag: v1.2.0)", and is empty when no ref points at the commit.
type Raw struct {
	Hash      string
	Author    Person
	Committer Person
	Date      time.Time
	Message   string
	Tags      string
}

// Note is a footer annotation such as a BREAKING CHANGE description.
type Note struct {
	Title string `json:"title" yaml:"title"`
	Text  string `json:"text" yaml:"text"`
}

// Reference points at an issue, optionally with the action that closed it.
type Reference struct {
	Action     string `json:"action,omitempty" yaml:"action,omitempty"`
	Owner      string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Repository string `json:"repository,omitempty" yaml:"repository,omitempty"`
	Prefix     string `json:"prefix" yaml:"prefix"`
	Issue      string `json:"issue" yaml:"issue"`
	Raw        string `json:"raw" yaml:"raw"`
}

// Revert describes the commit reverted by a "Revert ..." commit.
type Revert struct {
	Header string `json:"header" yaml:"header"`
	Hash   string `json:"hash" yaml:"hash"`
}

// Commit is a parsed commit flowing through the changelog pipeline.
// Header-derived values live in Fields under the names given by the parser's
// header correspondence; a name that did not match is absent from the map.
type Commit struct {
	Hash          string
	ShortHash     string
	Author        Person
	Date          time.Time
	CommitterDate string
	Tags          string

	Header     string
	Fields     map[string]string
	Body       []string
	Footer     string
	Notes      []Note
	References []Reference
	Mentions   []string
	Revert     *Revert

	// Version is derived from Tags by a transform; empty means no version.
	Version string
}

// Type returns the "type" header field.
func (c *Commit) Type() string { return c.Fields["type"] }

// Scope returns the "scope" header field.
func (c *Commit) Scope() string { return c.Fields["scope"] }

// Subject returns the "subject" header field.
func (c *Commit) Subject() string { return c.Fields["subject"] }

// Field resolves a field by name. Header fields take precedence over the
// built-in names (hash, shortHash, version, header, date, committerDate,
// author, body, footer). Unknown or absent names resolve to "".
func (c *Commit) Field(name string) string {
	if v, ok := c.Fields[name]; ok {
		return v
	}

	switch name {
	case "hash":
		return c.Hash
	case "shortHash":
		return c.ShortHash
	case "version":
		return c.Version
	case "header":
		return c.Header
	case "date":
		if c.Date.IsZero() {
			return ""
		}
		return c.Date.UTC().Format(time.RFC3339)
	case "committerDate":
		return c.CommitterDate
	case "author":
		return c.Author.Name
	case "body":
		return strings.Join(c.Body, "\n\n")
	case "footer":
		return c.Footer
	default:
		return ""
	}
}

// SetField sets a header field, removing it when value is empty so that
// absent and empty stay indistinguishable.
func (c *Commit) SetField(name, value string) {
	if value == "" {
		delete(c.Fields, name)
		return
	}
	if c.Fields == nil {
		c.Fields = make(map[string]string)
	}
	c.Fields[name] = value
}

// HasNotes reports whether the commit carries any footer notes.
func (c *Commit) HasNotes() bool {
	return len(c.Notes) > 0
}

// ActionReferences returns only the references that carry a closing action.
func (c *Commit) ActionReferences() []Reference {
	var refs []Reference
	for _, r := range c.References {
		if r.Action != "" {
			refs = append(refs, r)
		}
	}
	return refs
}
