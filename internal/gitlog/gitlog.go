// Package gitlog reads raw commits from a git repository with go-git.
//
// Commits are produced newest first (committer time order) together with a
// ref decoration in the form `git log --decorate` prints, for example
// " (HEAD -> main, tag: v1.2.0)".
package gitlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"go.uber.org/zap"

	"github.com/ariel-frischer/chglog/internal/commit"
)

// Options selects the part of the history to read.
type Options struct {
	// Path is any directory inside the repository; empty means the working directory.
	Path string `koanf:"path" yaml:"path"`
	// From excludes this revision and its ancestors.
	From string `koanf:"from" yaml:"from"`
	// FromLastTag sets From to the most recent semver tag when From is empty.
	FromLastTag bool `koanf:"from_last_tag" yaml:"from_last_tag"`
	// To is the revision to start walking from; empty means HEAD.
	To string `koanf:"to" yaml:"to"`
	// Paths keeps only commits touching one of these path prefixes.
	Paths []string `koanf:"paths" yaml:"paths"`
	// Reverse emits oldest first. The whole range is buffered to do so.
	Reverse  bool `koanf:"reverse" yaml:"reverse"`
	MaxCount int  `koanf:"max_count" yaml:"max_count"`
}

// Merge overlays the set values of o onto opts.
func (opts Options) Merge(o Options) Options {
	if o.Path != "" {
		opts.Path = o.Path
	}
	if o.From != "" {
		opts.From = o.From
	}
	if o.To != "" {
		opts.To = o.To
	}
	if len(o.Paths) > 0 {
		opts.Paths = o.Paths
	}
	if o.MaxCount > 0 {
		opts.MaxCount = o.MaxCount
	}
	opts.FromLastTag = opts.FromLastTag || o.FromLastTag
	opts.Reverse = opts.Reverse || o.Reverse
	return opts
}

// Source produces raw commits from one repository.
type Source struct {
	repo *git.Repository
	opts Options
	log  *zap.SugaredLogger
}

// Open opens the repository containing opts.Path, searching parent
// directories for the .git directory.
func Open(opts Options, logger *zap.SugaredLogger) (*Source, error) {
	repo, err := openRepo(opts.Path, logger)
	if err != nil {
		return nil, err
	}
	return New(repo, opts, logger), nil
}

// New wraps an already opened repository.
func New(repo *git.Repository, opts Options, logger *zap.SugaredLogger) *Source {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Source{repo: repo, opts: opts, log: logger}
}

func openRepo(path string, logger *zap.SugaredLogger) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	if logger != nil {
		logger.Debugw("opening repository", "path", path)
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// Commits sends the selected commits to out. It does not close out.
// An empty repository yields no commits.
func (s *Source) Commits(ctx context.Context, out chan<- commit.Raw) error {
	to, err := s.resolveTo()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			s.log.Debugw("repository has no commits")
			return nil
		}
		return err
	}

	exclude, err := s.excluded()
	if err != nil {
		return err
	}

	decorations, err := s.decorations()
	if err != nil {
		return err
	}

	iter, err := s.repo.Log(&git.LogOptions{
		From:       to,
		Order:      git.LogOrderCommitterTime,
		PathFilter: s.pathFilter(),
	})
	if err != nil {
		return fmt.Errorf("reading log: %w", err)
	}
	defer iter.Close()

	s.log.Debugw("walking history", "to", to.String(), "from", s.opts.From, "paths", s.opts.Paths)

	var buffered []commit.Raw
	emitted := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, skip := exclude[c.Hash]; skip {
			return nil
		}
		if s.opts.MaxCount > 0 && emitted >= s.opts.MaxCount {
			return storer.ErrStop
		}
		emitted++

		raw := toRaw(c, decorations[c.Hash])
		if s.opts.Reverse {
			buffered = append(buffered, raw)
			return nil
		}
		return send(ctx, out, raw)
	})
	if err != nil {
		return err
	}

	for i := len(buffered) - 1; i >= 0; i-- {
		if err := send(ctx, out, buffered[i]); err != nil {
			return err
		}
	}

	s.log.Debugw("history walked", "commits", emitted)
	return nil
}

func send(ctx context.Context, out chan<- commit.Raw, raw commit.Raw) error {
	select {
	case out <- raw:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toRaw(c *object.Commit, decoration string) commit.Raw {
	return commit.Raw{
		Hash:      c.Hash.String(),
		Author:    commit.Person{Name: c.Author.Name, Email: c.Author.Email},
		Committer: commit.Person{Name: c.Committer.Name, Email: c.Committer.Email},
		Date:      c.Committer.When,
		Message:   c.Message,
		Tags:      decoration,
	}
}

func (s *Source) resolveTo() (plumbing.Hash, error) {
	if s.opts.To == "" {
		head, err := s.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return head.Hash(), nil
	}
	return s.resolve(s.opts.To)
}

func (s *Source) resolve(rev string) (plumbing.Hash, error) {
	h, err := s.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	return *h, nil
}

// excluded returns the ancestors of the From revision, From included.
func (s *Source) excluded() (map[plumbing.Hash]struct{}, error) {
	from := s.opts.From
	if from == "" && s.opts.FromLastTag {
		tag, err := s.LastTag()
		if err != nil {
			return nil, err
		}
		s.log.Debugw("starting after last tag", "tag", tag)
		from = tag
	}
	if from == "" {
		return nil, nil
	}

	h, err := s.resolve(from)
	if err != nil {
		return nil, err
	}

	iter, err := s.repo.Log(&git.LogOptions{From: h})
	if err != nil {
		return nil, fmt.Errorf("reading log from %s: %w", from, err)
	}
	defer iter.Close()

	set := make(map[plumbing.Hash]struct{})
	err = iter.ForEach(func(c *object.Commit) error {
		set[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking ancestors of %s: %w", from, err)
	}
	return set, nil
}

func (s *Source) pathFilter() func(string) bool {
	if len(s.opts.Paths) == 0 {
		return nil
	}
	prefixes := make([]string, 0, len(s.opts.Paths))
	for _, p := range s.opts.Paths {
		prefixes = append(prefixes, strings.TrimPrefix(strings.TrimSuffix(p, "/"), "./"))
	}
	return func(path string) bool {
		for _, p := range prefixes {
			if p == "" || p == "." || path == p || strings.HasPrefix(path, p+"/") {
				return true
			}
		}
		return false
	}
}
