package commit

import (
	"fmt"
	"regexp"
	"strings"
)

// OptionError reports an invalid parser option.
type OptionError struct {
	Option  string
	Message string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Option, e.Message)
}

// Parser parses raw commits with a fixed, pre-compiled set of options.
// A Parser is safe for concurrent use.
type Parser struct {
	opts      ParserOptions
	header    *regexp.Regexp
	revert    *regexp.Regexp
	note      *regexp.Regexp
	action    *regexp.Regexp
	issue     *regexp.Regexp
	mention   *regexp.Regexp
	noteTitle map[string]string
}

var mentionPattern = regexp.MustCompile(`(?:^|\s)@([\w-]+)`)

// NewParser compiles opts. Empty options fall back to DefaultParserOptions.
func NewParser(opts ParserOptions) (*Parser, error) {
	opts = DefaultParserOptions().Merge(opts)

	header, err := regexp.Compile(opts.HeaderPattern)
	if err != nil {
		return nil, &OptionError{Option: "header_pattern", Message: err.Error()}
	}
	if n := header.NumSubexp(); n < len(opts.HeaderCorrespondence) {
		return nil, &OptionError{
			Option:  "header_correspondence",
			Message: fmt.Sprintf("%d names for %d capture groups", len(opts.HeaderCorrespondence), n),
		}
	}

	revert, err := regexp.Compile(opts.RevertPattern)
	if err != nil {
		return nil, &OptionError{Option: "revert_pattern", Message: err.Error()}
	}

	p := &Parser{
		opts:      opts,
		header:    header,
		revert:    revert,
		mention:   mentionPattern,
		noteTitle: make(map[string]string, len(opts.NoteKeywords)),
	}

	keywords := make([]string, 0, len(opts.NoteKeywords))
	for _, kw := range opts.NoteKeywords {
		keywords = append(keywords, regexp.QuoteMeta(kw))
		p.noteTitle[strings.ToUpper(kw)] = kw
	}
	p.note = regexp.MustCompile(`^[\s|*]*(` + strings.Join(keywords, "|") + `)[:\s]+(.*)$`)

	actions := make([]string, 0, len(opts.ReferenceActions))
	for _, a := range opts.ReferenceActions {
		actions = append(actions, regexp.QuoteMeta(a))
	}
	p.action = regexp.MustCompile(`(?i)^\s*(` + strings.Join(actions, "|") + `)[:\s]+(.*)$`)

	prefixes := make([]string, 0, len(opts.IssuePrefixes))
	for _, pre := range opts.IssuePrefixes {
		prefixes = append(prefixes, regexp.QuoteMeta(pre))
	}
	p.issue = regexp.MustCompile(`(?:([\w-]+)/([\w.-]+))?(` + strings.Join(prefixes, "|") + `)(\d+)`)

	return p, nil
}

// Parse converts a raw commit into a Commit. It never fails; header fields
// that the header pattern does not match are left absent.
func (p *Parser) Parse(raw Raw) *Commit {
	c := &Commit{
		Hash:   raw.Hash,
		Author: raw.Author,
		Date:   raw.Date,
		Tags:   raw.Tags,
		Fields: make(map[string]string),
	}

	message := strings.ReplaceAll(raw.Message, "\r\n", "\n")
	message = strings.Trim(message, "\n")
	lines := strings.Split(message, "\n")

	c.Header = strings.TrimSpace(lines[0])
	p.parseHeader(c)
	p.parseRevert(c, message)

	bodyLines := p.parseFooter(c, lines[1:])
	c.Body = splitParagraphs(bodyLines)

	p.collectBareReferences(c, append([]string{c.Header}, bodyLines...))
	c.Mentions = p.collectMentions(message)

	return c
}

// MatchesHeader reports whether the header pattern matched the commit's header.
func (p *Parser) MatchesHeader(c *Commit) bool {
	return p.header.MatchString(c.Header)
}

func (p *Parser) parseHeader(c *Commit) {
	m := p.header.FindStringSubmatch(c.Header)
	if m == nil {
		return
	}
	for i, name := range p.opts.HeaderCorrespondence {
		if i+1 < len(m) && m[i+1] != "" {
			c.Fields[name] = m[i+1]
		}
	}
}

func (p *Parser) parseRevert(c *Commit, message string) {
	m := p.revert.FindStringSubmatch(message)
	if m == nil {
		return
	}
	r := &Revert{}
	for i, name := range p.opts.RevertCorrespondence {
		if i+1 >= len(m) {
			break
		}
		switch name {
		case "header":
			r.Header = strings.TrimSpace(m[i+1])
		case "hash":
			r.Hash = m[i+1]
		}
	}
	c.Revert = r
}

// parseFooter walks the lines after the header. Everything before the first
// note or action-reference line is body; from there on it is footer, and
// plain lines extend the most recent note.
func (p *Parser) parseFooter(c *Commit, lines []string) []string {
	var body, footer []string
	inFooter := false
	current := -1

	for _, line := range lines {
		if m := p.note.FindStringSubmatch(line); m != nil {
			inFooter = true
			c.Notes = append(c.Notes, Note{Title: p.noteTitleFor(m[1]), Text: m[2]})
			current = len(c.Notes) - 1
			footer = append(footer, line)
			continue
		}

		if refs := p.actionReferences(line); len(refs) > 0 {
			inFooter = true
			current = -1
			c.References = appendUniqueRefs(c.References, refs...)
			footer = append(footer, line)
			continue
		}

		if inFooter {
			footer = append(footer, line)
			if current >= 0 {
				c.Notes[current].Text += "\n" + line
			}
			continue
		}

		body = append(body, line)
	}

	for i := range c.Notes {
		c.Notes[i].Text = strings.TrimSpace(c.Notes[i].Text)
	}
	c.Footer = strings.TrimSpace(strings.Join(footer, "\n"))

	return body
}

func (p *Parser) noteTitleFor(keyword string) string {
	if title, ok := p.noteTitle[strings.ToUpper(keyword)]; ok {
		return title
	}
	return keyword
}

func (p *Parser) actionReferences(line string) []Reference {
	m := p.action.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	refs := p.issueReferences(m[2])
	for i := range refs {
		refs[i].Action = m[1]
	}
	return refs
}

func (p *Parser) issueReferences(text string) []Reference {
	var refs []Reference
	for _, m := range p.issue.FindAllStringSubmatch(text, -1) {
		refs = append(refs, Reference{
			Owner:      m[1],
			Repository: m[2],
			Prefix:     m[3],
			Issue:      m[4],
			Raw:        m[0],
		})
	}
	return refs
}

func (p *Parser) collectBareReferences(c *Commit, lines []string) {
	for _, line := range lines {
		c.References = appendUniqueRefs(c.References, p.issueReferences(line)...)
	}
}

func (p *Parser) collectMentions(message string) []string {
	var mentions []string
	seen := make(map[string]bool)
	for _, m := range p.mention.FindAllStringSubmatch(message, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			mentions = append(mentions, m[1])
		}
	}
	return mentions
}

// appendUniqueRefs appends refs not already present (same owner, repository,
// prefix and issue). The first occurrence wins, so an action reference found
// in the footer is kept over a bare one.
func appendUniqueRefs(dst []Reference, refs ...Reference) []Reference {
	for _, r := range refs {
		dup := false
		for _, existing := range dst {
			if existing.Owner == r.Owner && existing.Repository == r.Repository &&
				existing.Prefix == r.Prefix && existing.Issue == r.Issue {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, r)
		}
	}
	return dst
}

// splitParagraphs joins consecutive non-blank lines and splits on blank lines.
func splitParagraphs(lines []string) []string {
	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, strings.TrimRight(line, " \t"))
	}
	flush()

	return paragraphs
}
