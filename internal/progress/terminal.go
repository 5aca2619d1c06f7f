// Package progress shows a spinner on stderr while a changelog is written to
// a file. It degrades to nothing when stderr is not a terminal.
package progress

import (
	"os"

	"golang.org/x/term"
)

// TerminalCapabilities describes the terminal attached to a file.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsUnicode bool
}

// ProgressSymbols are the glyphs used for a terminal.
type ProgressSymbols struct {
	Checkmark  string
	Failure    string
	SpinnerSet int
}

// DetectTerminalCapabilities detects terminal features of f.
// Checks: f isatty, CHGLOG_ASCII env.
func DetectTerminalCapabilities(f *os.File) TerminalCapabilities {
	isTTY := f != nil && term.IsTerminal(int(f.Fd()))
	forceASCII := os.Getenv("CHGLOG_ASCII") == "1"

	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsUnicode: isTTY && !forceASCII,
	}
}

// SelectSymbols returns the appropriate symbol set based on terminal capabilities.
// Unicode: ✓/✗ with braille spinner (set 14). ASCII: [OK]/[FAIL] with |/-\ spinner (set 9).
func SelectSymbols(caps TerminalCapabilities) ProgressSymbols {
	if caps.SupportsUnicode {
		return ProgressSymbols{
			Checkmark:  "✓",
			Failure:    "✗",
			SpinnerSet: 14, // Unicode dots: ⠋ ⠙ ⠹ ⠸ ⠼ ⠴ ⠦ ⠧ ⠇ ⠏
		}
	}

	return ProgressSymbols{
		Checkmark:  "[OK]",
		Failure:    "[FAIL]",
		SpinnerSet: 9, // ASCII: | / - \
	}
}
