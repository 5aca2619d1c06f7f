// Package transform provides the per-commit hooks that enrich parsed commits
// before they are grouped and rendered.
//
// Hooks mutate the commit they are handed; the pipeline guarantees a commit is
// owned by one stage at a time, so no copying is needed. Every built-in hook is
// idempotent because presets compose a parser-stage and a writer-stage chain
// that may touch the same fields twice.
package transform

import (
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/ariel-frischer/chglog/internal/commit"
)

// ErrDrop is returned by a hook to remove the commit from the stream.
var ErrDrop = errors.New("commit dropped by transform")

// Func enriches c in place. Returning ErrDrop drops the commit; any other
// error aborts the run.
type Func func(c *commit.Commit) error

// DefaultTagPattern extracts a version from a `git log %d` decoration.
const DefaultTagPattern = `tag:\s*[v=]?(.+?)[,)]`

// DefaultDateLayout is the display layout for CommitterDate.
const DefaultDateLayout = "2006-01-02"

var defaultTagRegexp = regexp.MustCompile(DefaultTagPattern)

// Chain runs fns in order and stops at the first error. Nil entries are skipped.
func Chain(fns ...Func) Func {
	return func(c *commit.Commit) error {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// Default is the transform applied when no preset provides one.
func Default() Func {
	return Chain(
		TagVersion(nil),
		FormatDate(DefaultDateLayout),
		ShortHash(7),
	)
}

// TagVersion sets Version from the first match of re against the commit's
// tag decoration. A nil re uses DefaultTagPattern. An already derived
// version is left untouched.
func TagVersion(re *regexp.Regexp) Func {
	if re == nil {
		re = defaultTagRegexp
	}
	return func(c *commit.Commit) error {
		if c.Version != "" || c.Tags == "" {
			return nil
		}
		if m := re.FindStringSubmatch(c.Tags); len(m) > 1 {
			c.Version = m[1]
		}
		return nil
	}
}

// FormatDate renders the commit date in UTC using layout into CommitterDate.
func FormatDate(layout string) Func {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return func(c *commit.Commit) error {
		if c.Date.IsZero() {
			return nil
		}
		c.CommitterDate = c.Date.UTC().Format(layout)
		return nil
	}
}

// ShortHash sets ShortHash to the first n characters of Hash.
func ShortHash(n int) Func {
	return func(c *commit.Commit) error {
		c.ShortHash = clip(c.Hash, n)
		return nil
	}
}

// ClipFields fits two header fields into a total width budget: first is
// clipped to total runes, second to whatever first leaves over.
func ClipFields(total int, first, second string) Func {
	return func(c *commit.Commit) error {
		a := clip(c.Field(first), total)
		if a != "" {
			c.SetField(first, a)
		}
		rest := total - utf8.RuneCountInString(a)
		if b := c.Fields[second]; b != "" {
			c.SetField(second, clip(b, rest))
		}
		return nil
	}
}

// RequireField drops commits whose field resolves to an empty string.
func RequireField(name string) Func {
	return func(c *commit.Commit) error {
		if c.Field(name) == "" {
			return ErrDrop
		}
		return nil
	}
}

// KeepTypes drops commits whose "type" field is not in keep. Commits carrying
// notes are always kept so breaking changes are never hidden.
func KeepTypes(keep ...string) Func {
	allowed := make(map[string]bool, len(keep))
	for _, t := range keep {
		allowed[t] = true
	}
	return func(c *commit.Commit) error {
		if allowed[c.Type()] || c.HasNotes() {
			return nil
		}
		return ErrDrop
	}
}

func clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
