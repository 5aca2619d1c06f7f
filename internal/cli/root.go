// Package cli implements the chglog command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ariel-frischer/chglog/internal/config"
	clierrors "github.com/ariel-frischer/chglog/internal/errors"
	"github.com/ariel-frischer/chglog/internal/gitlog"
	"github.com/ariel-frischer/chglog/internal/pipeline"
)

// Deps are the collaborators of the root command. Zero fields use the
// real implementations.
type Deps struct {
	// LoadSettings reads persistent settings; defaults to config.Load.
	LoadSettings func() (*config.Settings, error)
	// OpenSource opens the commit source; defaults to gitlog.Open.
	OpenSource func(opts gitlog.Options, logger *zap.SugaredLogger) (pipeline.Source, error)
	// Now dates the unreleased block when no context date is given.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.LoadSettings == nil {
		d.LoadSettings = config.Load
	}
	if d.OpenSource == nil {
		d.OpenSource = func(opts gitlog.Options, logger *zap.SugaredLogger) (pipeline.Source, error) {
			return gitlog.Open(opts, logger)
		}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// flags holds the values of the root command's flags.
type flags struct {
	infile      string
	outfile     string
	overwrite   bool
	preset      string
	pkg         string
	append      bool
	allBlocks   bool
	verbose     bool
	context     string
	gitOpts     string
	parserOpts  string
	writerOpts  string
	repo        string
	fromLastTag bool
}

// NewRootCmd builds the chglog command.
func NewRootCmd(deps Deps) *cobra.Command {
	deps = deps.withDefaults()
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "chglog",
		Short: "Generate a changelog from conventional commit history",
		Long: `Generate a changelog from git commit history.

Commits are parsed with a preset's header pattern, grouped into release
blocks at each version tag and rendered as Markdown. By default only the
newest block is generated; --all-blocks regenerates the whole history.

Settings are read from .chglog.yml and CHGLOG_* environment variables;
flags take precedence.`,
		Example: `  # Print the unreleased changes
  chglog

  # Prepend the newest release to CHANGELOG.md
  chglog -i CHANGELOG.md -w

  # Regenerate the whole changelog with the angular preset
  chglog -p angular -b -i CHANGELOG.md -w

  # Append instead of prepend, and read template values from a file
  chglog -i CHANGELOG.md -w -a -c context.yml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, f, deps)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.infile, "infile", "i", "", "Read the existing changelog from this file")
	fl.StringVarP(&f.outfile, "outfile", "o", "", "Write the changelog to this file (default: stdout)")
	fl.BoolVarP(&f.overwrite, "overwrite", "w", false, "Overwrite the infile")
	fl.StringVarP(&f.preset, "preset", "p", "", "Preset name (angular, jquery)")
	fl.StringVarP(&f.pkg, "pkg", "k", "", "Package metadata file (default: package.json when present)")
	fl.BoolVarP(&f.append, "append", "a", false, "Append the generated block instead of prepending")
	fl.BoolVarP(&f.allBlocks, "all-blocks", "b", false, "Regenerate the whole history")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Verbose logging to stderr")
	fl.StringVarP(&f.context, "context", "c", "", "Template context values file (.yml, .json, .toml)")
	fl.StringVar(&f.gitOpts, "git-raw-commits-opts", "", "Git source options file")
	fl.StringVar(&f.parserOpts, "parser-opts", "", "Commit parser options file")
	fl.StringVar(&f.writerOpts, "writer-opts", "", "Writer options file")
	fl.StringVarP(&f.repo, "repo", "r", "", "Path inside the git repository (default: .)")
	fl.BoolVar(&f.fromLastTag, "from-last-tag", false, "Only read commits after the most recent semver tag")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs chglog with the process arguments and prints any error to
// stderr. The returned error maps to an exit code with ExitCode.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, err := NewRootCmd(Deps{}).ExecuteContextC(ctx)
	if err != nil {
		printError(cmd, err)
	}
	return err
}

// printError prints err for the command that failed. Errors that are not
// CLIErrors come from flag and argument parsing.
func printError(cmd *cobra.Command, err error) {
	cliErr := clierrors.AsCLIError(err)
	if cliErr == nil {
		cliErr = clierrors.InvalidUsage(err, cmd.UseLine())
	}
	clierrors.FprintError(cmd.ErrOrStderr(), cliErr)
}
