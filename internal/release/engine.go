package release

import (
	"context"

	"github.com/ariel-frischer/chglog/internal/commit"
)

// Entry is one commit of the stream. A dropped commit was removed by a
// transform: it still cuts a block when it satisfies GenerateOn, giving the
// block its version and date, but it is never listed.
type Entry struct {
	Commit  *commit.Commit
	Dropped bool
}

// Segmenter cuts a newest-first stream into segments. It holds only the
// commits of the currently open segment.
type Segmenter struct {
	opts    Options
	current *Segment
	done    bool
}

// NewSegmenter returns a Segmenter positioned on the unreleased segment.
func NewSegmenter(opts Options) *Segmenter {
	return &Segmenter{
		opts:    opts.WithDefaults(),
		current: &Segment{},
	}
}

// Push feeds the next entry. It returns the segment closed by it, if any,
// and whether the segmenter needs no further input.
func (s *Segmenter) Push(e Entry) (*Segment, bool) {
	if s.done {
		return nil, true
	}

	c := e.Commit
	if !s.opts.GenerateOn(c) {
		if !e.Dropped {
			s.current.Commits = append(s.current.Commits, c)
		}
		return nil, false
	}

	closed := s.current
	s.current = &Segment{Key: c}
	if !e.Dropped {
		s.current.Commits = []*commit.Commit{c}
	}

	if s.opts.AllBlocks {
		return closed, false
	}
	if closed.Key == nil && len(closed.Commits) == 0 {
		// Nothing unreleased; the most recent block is the one c opens.
		return nil, false
	}
	s.done = true
	return closed, true
}

// Close ends the stream and returns the open segment, or nil when the
// segmenter already emitted everything it will emit.
func (s *Segmenter) Close() *Segment {
	if s.done {
		return nil
	}
	s.done = true
	return s.current
}

// Engine runs segmentation and grouping over a channel of entries.
type Engine struct {
	opts Options
}

// NewEngine validates opts and returns an Engine.
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts.WithDefaults()}, nil
}

// Run consumes in until it is closed or the most recent block is complete,
// sending finished blocks to out. It returns nil when it stops early; the
// caller is expected to cancel upstream producers at that point. Run does
// not close out.
func (e *Engine) Run(ctx context.Context, in <-chan Entry, out chan<- Block) error {
	seg := NewSegmenter(e.opts)

	send := func(s *Segment) error {
		select {
		case out <- Build(*s, e.opts):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		select {
		case entry, ok := <-in:
			if !ok {
				if s := seg.Close(); s != nil {
					return send(s)
				}
				return nil
			}
			closed, done := seg.Push(entry)
			if closed != nil {
				if err := send(closed); err != nil {
					return err
				}
			}
			if done {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Collect is a convenience that segments and groups a complete slice.
func (e *Engine) Collect(entries []Entry) []Block {
	seg := NewSegmenter(e.opts)
	var blocks []Block

	for _, entry := range entries {
		closed, done := seg.Push(entry)
		if closed != nil {
			blocks = append(blocks, Build(*closed, e.opts))
		}
		if done {
			return blocks
		}
	}
	if s := seg.Close(); s != nil {
		blocks = append(blocks, Build(*s, e.opts))
	}
	return blocks
}
