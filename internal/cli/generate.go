package cli

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ariel-frischer/chglog/internal/commit"
	"github.com/ariel-frischer/chglog/internal/config"
	clierrors "github.com/ariel-frischer/chglog/internal/errors"
	"github.com/ariel-frischer/chglog/internal/gitlog"
	"github.com/ariel-frischer/chglog/internal/merge"
	"github.com/ariel-frischer/chglog/internal/pipeline"
	"github.com/ariel-frischer/chglog/internal/preset"
	"github.com/ariel-frischer/chglog/internal/progress"
	"github.com/ariel-frischer/chglog/internal/render"
)

// optionFiles are the decoded --context, --git-raw-commits-opts,
// --parser-opts and --writer-opts files.
type optionFiles struct {
	context render.Context
	git     gitlog.Options
	parser  commit.ParserOptions
	writer  preset.WriterSpec
}

func runGenerate(cmd *cobra.Command, f *flags, deps Deps) error {
	settings, err := deps.LoadSettings()
	if err != nil {
		return clierrors.InvalidSettings(err)
	}
	applyFlags(cmd.Flags(), f, settings)

	logger := newLogger(settings.Verbose, cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	plan, err := merge.Resolve(merge.Request{
		Infile:    settings.Infile,
		Outfile:   settings.Outfile,
		Overwrite: f.overwrite,
		Append:    settings.Append,
		AllBlocks: settings.AllBlocks,
	})
	if errors.Is(err, merge.ErrNothingToOverwrite) {
		return clierrors.NothingToOverwrite()
	}
	if err != nil {
		return clierrors.Wrap(err, clierrors.Argument)
	}
	logger.Debugw("output plan", "mode", plan.Mode, "policy", plan.Policy, "infile", plan.Infile, "outfile", plan.Outfile, "reads_existing", plan.ReadsExisting())

	files, err := loadOptionFiles(settings)
	if err != nil {
		return clierrors.OptionFile(err)
	}

	p, err := preset.Resolve(cmd.Context(), settings.Preset)
	if err != nil {
		var unknown *preset.UnknownPresetError
		if errors.As(err, &unknown) {
			return clierrors.UnknownPreset(err, preset.Names())
		}
		return clierrors.Wrap(err, clierrors.Configuration)
	}
	p.Parser = p.Parser.Merge(files.parser)
	if err := files.writer.ApplyTo(p); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Configuration, "applying writer options")
	}
	p.Writer.AllBlocks = settings.AllBlocks
	logger.Debugw("preset resolved", "preset", p.Name, "group_by", p.Writer.GroupBy, "all_blocks", p.Writer.AllBlocks)

	ctx, err := buildContext(settings, files.context, deps)
	if err != nil {
		return clierrors.OptionFile(err)
	}

	gitOpts := gitlog.Options{Path: settings.Repo}.Merge(files.git)
	if f.fromLastTag {
		gitOpts.FromLastTag = true
	}
	src, err := deps.OpenSource(gitOpts, logger)
	if err != nil {
		return clierrors.NotARepository(gitOpts.Path, err)
	}

	gen, err := pipeline.New(src, pipeline.Options{
		Parser:     p.Parser,
		Transform:  p.Transform,
		Writer:     p.Writer,
		Templates:  p.Templates,
		Context:    ctx,
		Logger:     logger,
		BufferSize: settings.BufferSize,
	})
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Configuration, "configuring generator")
	}

	var sp *progress.Spinner
	if plan.Outfile != "" && !settings.Verbose {
		sp = startSpinner(cmd.ErrOrStderr(), "Generating "+plan.Outfile)
	}

	generated := gen.Stream(cmd.Context())
	defer generated.Close()

	err = plan.Execute(generated, cmd.OutOrStdout())
	sp.Stop(err == nil, plan.Outfile)
	if err != nil {
		return clierrors.GenerationFailed(err)
	}
	return nil
}

// applyFlags overlays the flags the user set onto the loaded settings.
func applyFlags(fl *pflag.FlagSet, f *flags, s *config.Settings) {
	str := func(name string, dst *string, v string) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool, v bool) {
		if fl.Changed(name) {
			*dst = v
		}
	}

	str("infile", &s.Infile, f.infile)
	str("outfile", &s.Outfile, f.outfile)
	str("preset", &s.Preset, f.preset)
	str("pkg", &s.Pkg, f.pkg)
	str("context", &s.Context, f.context)
	str("git-raw-commits-opts", &s.GitRawCommitsOpts, f.gitOpts)
	str("parser-opts", &s.ParserOpts, f.parserOpts)
	str("writer-opts", &s.WriterOpts, f.writerOpts)
	str("repo", &s.Repo, f.repo)
	boolean("append", &s.Append, f.append)
	boolean("all-blocks", &s.AllBlocks, f.allBlocks)
	boolean("verbose", &s.Verbose, f.verbose)
}

func loadOptionFiles(s *config.Settings) (optionFiles, error) {
	var files optionFiles
	var err error

	if s.Context != "" {
		if files.context, err = config.LoadContext(s.Context); err != nil {
			return files, err
		}
	}
	if s.GitRawCommitsOpts != "" {
		if files.git, err = config.LoadGitOptions(s.GitRawCommitsOpts); err != nil {
			return files, err
		}
	}
	if s.ParserOpts != "" {
		if files.parser, err = config.LoadParserOptions(s.ParserOpts); err != nil {
			return files, err
		}
	}
	if s.WriterOpts != "" {
		if files.writer, err = config.LoadWriterOptions(s.WriterOpts); err != nil {
			return files, err
		}
	}
	return files, nil
}

// buildContext layers package metadata, the context file and today's date.
// An explicit --pkg must be readable; the default package.json is optional.
func buildContext(s *config.Settings, fromFile render.Context, deps Deps) (render.Context, error) {
	var ctx render.Context

	pkgPath := s.Pkg
	if pkgPath == "" {
		if _, err := os.Stat(config.DefaultPackagePath); err == nil {
			pkgPath = config.DefaultPackagePath
		}
	}
	if pkgPath != "" {
		pkg, err := config.ReadPackage(pkgPath)
		if err != nil {
			return ctx, err
		}
		ctx = pkg.Context()
	}

	ctx = ctx.Merge(fromFile)
	if ctx.Date == "" {
		ctx.Date = deps.Now().Format("2006-01-02")
	}
	return ctx, nil
}

// startSpinner shows progress on w when it is a terminal.
func startSpinner(w io.Writer, message string) *progress.Spinner {
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	return progress.Start(f, message)
}

// newLogger returns a development logger on w when verbose, else a no-op.
func newLogger(verbose bool, w io.Writer) *zap.SugaredLogger {
	if !verbose {
		return zap.NewNop().Sugar()
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), zapcore.DebugLevel)
	return zap.New(core).Sugar()
}
