package cli

import clierrors "github.com/ariel-frischer/chglog/internal/errors"

// Exit codes for the chglog CLI
const (
	// ExitSuccess indicates the changelog was generated and written
	ExitSuccess = 0

	// ExitFailure indicates any failure: bad flags, unreadable option files,
	// an unknown preset, "Nothing to overwrite" or a generation error
	ExitFailure = 1
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		return cliErr.ExitCode()
	}
	return ExitFailure
}
