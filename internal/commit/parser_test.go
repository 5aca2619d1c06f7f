// Package commit tests header, body and footer parsing of commit messages.
// Related: internal/commit/parser.go
// Tags: commit, parser, conventional, references, notes

package commit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParser(t *testing.T, opts ParserOptions) *Parser {
	t.Helper()
	p, err := NewParser(opts)
	require.NoError(t, err)
	return p
}

func TestParse_Header(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		message    string
		wantFields map[string]string
	}{
		"type scope subject": {
			message:    "feat(api): add endpoint",
			wantFields: map[string]string{"type": "feat", "scope": "api", "subject": "add endpoint"},
		},
		"type subject without scope": {
			message:    "fix: handle nil config",
			wantFields: map[string]string{"type": "fix", "subject": "handle nil config"},
		},
		"breaking bang": {
			message:    "refactor(core)!: drop legacy loader",
			wantFields: map[string]string{"type": "refactor", "scope": "core", "subject": "drop legacy loader"},
		},
		"non conventional header degrades": {
			message:    "First commit",
			wantFields: map[string]string{},
		},
		"empty message degrades": {
			message:    "",
			wantFields: map[string]string{},
		},
	}

	p := mustParser(t, DefaultParserOptions())
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := p.Parse(Raw{Hash: "abc123", Message: tc.message})
			assert.Equal(t, tc.wantFields, c.Fields)
			assert.Equal(t, "abc123", c.Hash)
		})
	}
}

func TestParse_HeaderRoundTrip(t *testing.T) {
	t.Parallel()

	headers := []string{
		"feat(parser): support notes",
		"fix: trailing whitespace",
		"perf(render.go): cache templates",
		"docs(a b): spaced scope",
	}

	p := mustParser(t, DefaultParserOptions())
	for _, header := range headers {
		header := header
		t.Run(header, func(t *testing.T) {
			t.Parallel()
			first := p.Parse(Raw{Message: header})
			require.NotEmpty(t, first.Type())

			rebuilt := first.Type()
			if first.Scope() != "" {
				rebuilt += "(" + first.Scope() + ")"
			}
			rebuilt += ": " + first.Subject()

			second := p.Parse(Raw{Message: rebuilt})
			assert.Equal(t, first.Type(), second.Type())
			assert.Equal(t, first.Scope(), second.Scope())
			assert.Equal(t, first.Subject(), second.Subject())
		})
	}
}

func TestParse_CustomCorrespondence(t *testing.T) {
	t.Parallel()

	p := mustParser(t, ParserOptions{
		HeaderPattern:        `^(\w*)\: (.*)$`,
		HeaderCorrespondence: []string{"component", "shortDesc"},
	})

	c := p.Parse(Raw{Message: "Ajax: Fix timeout handling\n\nLonger description."})
	assert.Equal(t, "Ajax", c.Field("component"))
	assert.Equal(t, "Fix timeout handling", c.Field("shortDesc"))
	assert.Empty(t, c.Type())
	assert.Equal(t, []string{"Longer description."}, c.Body)
}

func TestParse_BodyAndFooter(t *testing.T) {
	t.Parallel()

	message := "feat(cli): add --all-blocks\n" +
		"\n" +
		"First paragraph\n" +
		"continues here.\n" +
		"\n" +
		"Second paragraph mentions #7 and @octocat.\n" +
		"\n" +
		"BREAKING CHANGE: the default output changed\n" +
		"and now spans lines.\n" +
		"Closes #12, #13\n" +
		"Fixes owner/repo#4\n"

	p := mustParser(t, DefaultParserOptions())
	c := p.Parse(Raw{Message: message})

	assert.Equal(t, []string{
		"First paragraph\ncontinues here.",
		"Second paragraph mentions #7 and @octocat.",
	}, c.Body)

	require.Len(t, c.Notes, 1)
	assert.Equal(t, "BREAKING CHANGE", c.Notes[0].Title)
	assert.Equal(t, "the default output changed\nand now spans lines.", c.Notes[0].Text)

	issues := make([]string, 0, len(c.References))
	for _, r := range c.References {
		issues = append(issues, fmt.Sprintf("%s|%s/%s|%s", r.Action, r.Owner, r.Repository, r.Issue))
	}
	assert.Equal(t, []string{"Closes|/|12", "Closes|/|13", "Fixes|owner/repo|4", "|/|7"}, issues)

	assert.Equal(t, []string{"octocat"}, c.Mentions)
	assert.Contains(t, c.Footer, "Closes #12, #13")
	assert.True(t, c.HasNotes())
	assert.Len(t, c.ActionReferences(), 3)
}

func TestParse_ActionWordInBodyIsNotFooter(t *testing.T) {
	t.Parallel()

	p := mustParser(t, DefaultParserOptions())
	c := p.Parse(Raw{Message: "fix: retry\n\nFixes the flaky retry loop.\n"})

	assert.Equal(t, []string{"Fixes the flaky retry loop."}, c.Body)
	assert.Empty(t, c.Footer)
	assert.Empty(t, c.References)
}

func TestParse_Revert(t *testing.T) {
	t.Parallel()

	p := mustParser(t, DefaultParserOptions())
	c := p.Parse(Raw{Message: "Revert \"feat: add thing\"\n\nThis reverts commit 1234abcd.\n"})

	require.NotNil(t, c.Revert)
	assert.Equal(t, "feat: add thing", c.Revert.Header)
	assert.Equal(t, "1234abcd", c.Revert.Hash)
}

func TestNewParser_InvalidOptions(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts       ParserOptions
		wantOption string
	}{
		"bad header pattern": {
			opts:       ParserOptions{HeaderPattern: `^(\w*`},
			wantOption: "header_pattern",
		},
		"too many names": {
			opts:       ParserOptions{HeaderPattern: `^(\w*): (.*)$`, HeaderCorrespondence: []string{"a", "b", "c"}},
			wantOption: "header_correspondence",
		},
		"bad revert pattern": {
			opts:       ParserOptions{RevertPattern: `(`},
			wantOption: "revert_pattern",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewParser(tc.opts)
			require.Error(t, err)
			var optErr *OptionError
			require.ErrorAs(t, err, &optErr)
			assert.Equal(t, tc.wantOption, optErr.Option)
		})
	}
}

func TestCommit_Field(t *testing.T) {
	t.Parallel()

	c := &Commit{
		Hash:          "0123456789",
		ShortHash:     "0123456",
		Version:       "1.0.0",
		Header:        "feat: x",
		CommitterDate: "2024-01-02",
		Author:        Person{Name: "Ada", Email: "ada@example.com"},
		Fields:        map[string]string{"type": "feat"},
	}

	assert.Equal(t, "feat", c.Field("type"))
	assert.Equal(t, "0123456789", c.Field("hash"))
	assert.Equal(t, "0123456", c.Field("shortHash"))
	assert.Equal(t, "1.0.0", c.Field("version"))
	assert.Equal(t, "2024-01-02", c.Field("committerDate"))
	assert.Equal(t, "Ada", c.Field("author"))
	assert.Equal(t, "", c.Field("scope"))
	assert.Equal(t, "Ada <ada@example.com>", c.Author.String())

	c.SetField("scope", "api")
	assert.Equal(t, "api", c.Scope())
	c.SetField("scope", "")
	_, ok := c.Fields["scope"]
	assert.False(t, ok)
}
