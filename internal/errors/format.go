package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	errorLabel    = color.New(color.FgRed, color.Bold)
	categoryLabel = color.New(color.FgYellow)
	usageLabel    = color.New(color.FgCyan, color.Bold)
	fixLabel      = color.New(color.FgGreen, color.Bold)
)

// FormatError renders err for stderr, colored unless color.NoColor is set.
func FormatError(err *CLIError) string {
	return formatError(err, !color.NoColor)
}

// FprintError writes the formatted err to w.
func FprintError(w io.Writer, err *CLIError) {
	fmt.Fprint(w, FormatError(err))
}

// formatError prints plain errors as the bare message with hints indented
// below it. Other errors get a category banner, usage and a fix list.
func formatError(err *CLIError, useColors bool) string {
	if err == nil {
		return ""
	}

	paint := func(c *color.Color, s string) string {
		if useColors {
			return c.Sprint(s)
		}
		return s
	}

	var sb strings.Builder
	if err.Plain {
		sb.WriteString(err.Message + "\n")
		for _, step := range err.Remediation {
			sb.WriteString("  " + step + "\n")
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "%s [%s]: %s\n", paint(errorLabel, "Error"), paint(categoryLabel, err.Category.String()), err.Message)
	if err.Usage != "" {
		fmt.Fprintf(&sb, "\n%s %s\n", paint(usageLabel, "Usage:"), err.Usage)
	}
	if len(err.Remediation) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", paint(fixLabel, "To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&sb, "  • %s\n", step)
		}
	}
	return sb.String()
}
