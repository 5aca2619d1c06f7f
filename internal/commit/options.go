package commit

// Default patterns for the conventional commit layout.
const (
	DefaultHeaderPattern = `^(\w*)(?:\(([\w$.\-*/ ]*)\))?!?: (.*)$`
	DefaultRevertPattern = `^(?:Revert|revert:)\s"?([\s\S]+?)"?\s*This reverts commit (\w+)\.?`
)

// ParserOptions configures how a commit message is parsed.
// Patterns are kept as strings so that option files can carry them; they are
// compiled once by NewParser.
type ParserOptions struct {
	// HeaderPattern is matched against the first line of the message.
	HeaderPattern string `koanf:"header_pattern" yaml:"header_pattern"`
	// HeaderCorrespondence names the capture groups of HeaderPattern in order.
	HeaderCorrespondence []string `koanf:"header_correspondence" yaml:"header_correspondence"`
	// NoteKeywords start a footer note when followed by ':' or whitespace.
	NoteKeywords []string `koanf:"note_keywords" yaml:"note_keywords"`
	// ReferenceActions start a footer reference line, e.g. "Closes #12".
	ReferenceActions []string `koanf:"reference_actions" yaml:"reference_actions"`
	// IssuePrefixes precede an issue number, e.g. "#".
	IssuePrefixes []string `koanf:"issue_prefixes" yaml:"issue_prefixes"`
	// RevertPattern detects revert commits across the whole message.
	RevertPattern string `koanf:"revert_pattern" yaml:"revert_pattern"`
	// RevertCorrespondence names the capture groups of RevertPattern.
	RevertCorrespondence []string `koanf:"revert_correspondence" yaml:"revert_correspondence"`
}

// DefaultParserOptions returns options for "type(scope): subject" headers.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		HeaderPattern:        DefaultHeaderPattern,
		HeaderCorrespondence: []string{"type", "scope", "subject"},
		NoteKeywords:         []string{"BREAKING CHANGE", "BREAKING-CHANGE"},
		ReferenceActions: []string{
			"close", "closes", "closed",
			"fix", "fixes", "fixed",
			"resolve", "resolves", "resolved",
		},
		IssuePrefixes:        []string{"#"},
		RevertPattern:        DefaultRevertPattern,
		RevertCorrespondence: []string{"header", "hash"},
	}
}

// Merge overlays the non-empty values of o onto base and returns the result.
// It lets option files override single keys of a preset.
func (base ParserOptions) Merge(o ParserOptions) ParserOptions {
	if o.HeaderPattern != "" {
		base.HeaderPattern = o.HeaderPattern
	}
	if len(o.HeaderCorrespondence) > 0 {
		base.HeaderCorrespondence = o.HeaderCorrespondence
	}
	if len(o.NoteKeywords) > 0 {
		base.NoteKeywords = o.NoteKeywords
	}
	if len(o.ReferenceActions) > 0 {
		base.ReferenceActions = o.ReferenceActions
	}
	if len(o.IssuePrefixes) > 0 {
		base.IssuePrefixes = o.IssuePrefixes
	}
	if o.RevertPattern != "" {
		base.RevertPattern = o.RevertPattern
	}
	if len(o.RevertCorrespondence) > 0 {
		base.RevertCorrespondence = o.RevertCorrespondence
	}
	return base
}
