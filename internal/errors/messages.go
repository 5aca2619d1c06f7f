package errors

import "fmt"

// Common error messages for the chglog CLI.
// The plain ones keep the exact wording scripts match on stderr.

// NothingToOverwrite reports --overwrite without an infile to overwrite.
func NothingToOverwrite() *CLIError {
	return &CLIError{
		Category: Argument,
		Message:  "Nothing to overwrite",
		Plain:    true,
	}
}

// OptionFile reports an option file (--context, --parser-opts, ...) that
// could not be read or decoded.
func OptionFile(err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("Failed to get file. %v", err),
		Plain:    true,
		Err:      err,
	}
}

// UnknownPreset reports a preset name that is not registered.
func UnknownPreset(err error, available []string) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  err.Error(),
		Plain:    true,
		Err:      err,
		Remediation: []string{
			fmt.Sprintf("Available presets: %v", available),
		},
	}
}

// InvalidSettings reports settings files or environment values that fail to load.
func InvalidSettings(err error) *CLIError {
	return WrapWithMessage(err, Configuration, "loading settings",
		"Check .chglog.yml and CHGLOG_* environment variables",
	)
}

// NotARepository reports a path that is not inside a git repository.
func NotARepository(path string, err error) *CLIError {
	return WrapWithMessage(err, Repository, fmt.Sprintf("cannot open repository at %s", path),
		"Run chglog inside a git repository",
		"Or point at one with --repo <path>",
	)
}

// GenerationFailed reports a failure while producing or writing the changelog.
func GenerationFailed(err error) *CLIError {
	return WrapWithMessage(err, Runtime, "generating changelog")
}

// InvalidUsage reports a flag or argument error raised by the command
// parser, with the syntax of the failing command.
func InvalidUsage(err error, usage string) *CLIError {
	return &CLIError{
		Category:    Argument,
		Message:     err.Error(),
		Usage:       usage,
		Err:         err,
		Remediation: []string{"Run 'chglog --help' to list the flags"},
	}
}
