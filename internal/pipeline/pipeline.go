// Package pipeline wires the commit source, parser, transforms, release
// engine and renderer into one streaming changelog generator.
//
// Stages run as goroutines joined by bounded channels, so a slow writer
// applies backpressure all the way to the source. Each commit is owned by
// exactly one stage at a time. When the release engine has everything it
// needs (most-recent mode), the source and parser are cancelled and their
// cancellation is not reported as an error.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/chglog/internal/commit"
	"github.com/ariel-frischer/chglog/internal/release"
	"github.com/ariel-frischer/chglog/internal/render"
	"github.com/ariel-frischer/chglog/internal/transform"
)

// DefaultBufferSize is the capacity of each inter-stage channel.
const DefaultBufferSize = 16

// Source produces raw commits, newest first. It must stop when ctx is done
// and must not close out.
type Source interface {
	Commits(ctx context.Context, out chan<- commit.Raw) error
}

// Options configures a Generator.
type Options struct {
	Parser commit.ParserOptions
	// Transform is the parser-stage hook; nil uses transform.Default.
	// Writer.Transform runs after it.
	Transform  transform.Func
	Writer     release.Options
	Templates  render.Templates
	Context    render.Context
	Logger     *zap.SugaredLogger
	BufferSize int
}

// Generator produces changelog text from a Source.
type Generator struct {
	source    Source
	parser    *commit.Parser
	transform transform.Func
	engine    *release.Engine
	renderer  *render.Renderer
	context   render.Context
	log       *zap.SugaredLogger
	bufSize   int
}

// New validates opts and builds a Generator reading from source.
func New(source Source, opts Options) (*Generator, error) {
	if source == nil {
		return nil, errors.New("pipeline: nil source")
	}

	parser, err := commit.NewParser(opts.Parser)
	if err != nil {
		return nil, fmt.Errorf("invalid parser options: %w", err)
	}

	engine, err := release.NewEngine(opts.Writer)
	if err != nil {
		return nil, fmt.Errorf("invalid writer options: %w", err)
	}

	renderer, err := render.New(opts.Templates)
	if err != nil {
		return nil, fmt.Errorf("invalid templates: %w", err)
	}

	parserStage := opts.Transform
	if parserStage == nil {
		parserStage = transform.Default()
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	return &Generator{
		source:    source,
		parser:    parser,
		transform: transform.Chain(parserStage, opts.Writer.Transform),
		engine:    engine,
		renderer:  renderer,
		context:   opts.Context,
		log:       logger,
		bufSize:   bufSize,
	}, nil
}

// WriteTo runs the pipeline and writes the rendered blocks to w in order.
func (g *Generator) WriteTo(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	upCtx, stopUpstream := context.WithCancel(egCtx)
	defer stopUpstream()

	var stopped atomic.Bool
	// halt hides the cancellation caused by an early stop.
	halt := func(err error) error {
		if stopped.Load() && errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	raws := make(chan commit.Raw, g.bufSize)
	commits := make(chan release.Entry, g.bufSize)
	blocks := make(chan release.Block, g.bufSize)

	var parsed, dropped, rendered int

	eg.Go(func() error {
		defer close(raws)
		if err := g.source.Commits(upCtx, raws); err != nil {
			if err = halt(err); err != nil {
				return fmt.Errorf("reading commits: %w", err)
			}
		}
		return nil
	})

	eg.Go(func() error {
		defer close(commits)
		for raw := range raws {
			c := g.parser.Parse(raw)
			parsed++
			if !g.parser.MatchesHeader(c) {
				g.log.Debugw("header does not match pattern", "hash", raw.Hash, "header", c.Header)
			}

			entry := release.Entry{Commit: c}
			if err := g.transform(c); err != nil {
				if !errors.Is(err, transform.ErrDrop) {
					return fmt.Errorf("transforming commit %s: %w", raw.Hash, err)
				}
				dropped++
				entry.Dropped = true
			}

			select {
			case commits <- entry:
			case <-upCtx.Done():
				return halt(upCtx.Err())
			}
		}
		return nil
	})

	eg.Go(func() error {
		defer close(blocks)
		if err := g.engine.Run(egCtx, commits, blocks); err != nil {
			return err
		}
		// Either the stream ended or the engine needs no more input.
		stopped.Store(true)
		stopUpstream()
		return nil
	})

	eg.Go(func() error {
		for b := range blocks {
			if err := g.renderer.Render(w, b, g.context); err != nil {
				return err
			}
			rendered++
			g.log.Debugw("block written", "version", b.Version, "commits", b.Count)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}

	g.log.Debugw("changelog generated", "parsed", parsed, "dropped", dropped, "blocks", rendered)
	return nil
}

// Stream runs WriteTo in the background and returns its output as a reader.
// Closing the reader early stops the pipeline.
func (g *Generator) Stream(ctx context.Context) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(g.WriteTo(ctx, pw))
	}()
	return pr
}
