package progress

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner animates a message until stopped. A nil *Spinner is valid and
// does nothing, so callers need not check whether one was started.
type Spinner struct {
	s       *spinner.Spinner
	symbols ProgressSymbols
}

// Start begins a spinner with message on f. It returns nil when f is not a
// terminal.
func Start(f *os.File, message string) *Spinner {
	caps := DetectTerminalCapabilities(f)
	if !caps.IsTTY {
		return nil
	}
	symbols := SelectSymbols(caps)
	s := spinner.New(spinner.CharSets[symbols.SpinnerSet], spinnerInterval, spinner.WithWriterFile(f))
	s.Suffix = " " + message
	s.Start()
	return &Spinner{s: s, symbols: symbols}
}

// Stop halts the spinner and leaves a final status line.
func (sp *Spinner) Stop(ok bool, message string) {
	if sp == nil {
		return
	}
	mark := sp.symbols.Checkmark
	if !ok {
		mark = sp.symbols.Failure
	}
	sp.s.FinalMSG = mark + " " + message + "\n"
	sp.s.Stop()
}
