package gitlog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// refNames collects the names pointing at one commit, by kind.
type refNames struct {
	head     string
	tags     []string
	branches []string
}

// decoration formats names like `git log %d`.
func (r *refNames) decoration() string {
	var parts []string
	if r.head != "" {
		parts = append(parts, r.head)
	}
	sort.Strings(r.tags)
	for _, t := range r.tags {
		parts = append(parts, "tag: "+t)
	}
	sort.Strings(r.branches)
	parts = append(parts, r.branches...)
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// refIndex maps commit hashes to the refs that point at them. Annotated
// tags are peeled to their commit.
func (s *Source) refIndex() (map[plumbing.Hash]*refNames, error) {
	index := make(map[plumbing.Hash]*refNames)
	at := func(h plumbing.Hash) *refNames {
		r, ok := index[h]
		if !ok {
			r = &refNames{}
			index[h] = r
		}
		return r
	}

	headBranch := ""
	if head, err := s.repo.Head(); err == nil {
		if head.Name().IsBranch() {
			headBranch = head.Name().Short()
			at(head.Hash()).head = "HEAD -> " + headBranch
		} else {
			at(head.Hash()).head = "HEAD"
		}
	}

	refs, err := s.repo.References()
	if err != nil {
		return nil, fmt.Errorf("listing references: %w", err)
	}
	defer refs.Close()

	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsTag():
			target, err := s.peel(ref.Hash())
			if err != nil {
				s.log.Debugw("skipping tag", "tag", name.Short(), "error", err)
				return nil
			}
			r := at(target)
			r.tags = append(r.tags, name.Short())
		case name.IsBranch():
			if name.Short() != headBranch {
				r := at(ref.Hash())
				r.branches = append(r.branches, name.Short())
			}
		case name.IsRemote():
			if !strings.HasSuffix(name.Short(), "/HEAD") {
				r := at(ref.Hash())
				r.branches = append(r.branches, name.Short())
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating references: %w", err)
	}
	return index, nil
}

// decorations renders the ref index into decoration strings.
func (s *Source) decorations() (map[plumbing.Hash]string, error) {
	index, err := s.refIndex()
	if err != nil {
		return nil, err
	}
	out := make(map[plumbing.Hash]string, len(index))
	for h, r := range index {
		out[h] = r.decoration()
	}
	return out, nil
}

// peel resolves a tag ref target to a commit hash.
func (s *Source) peel(h plumbing.Hash) (plumbing.Hash, error) {
	tag, err := s.repo.TagObject(h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		// Lightweight tag.
		return h, nil
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	c, err := tag.Commit()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return c.Hash, nil
}

// LastTag returns the most recent semver tag reachable from HEAD, or "" when
// there is none.
func (s *Source) LastTag() (string, error) {
	head, err := s.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}

	index, err := s.refIndex()
	if err != nil {
		return "", err
	}

	iter, err := s.repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return "", fmt.Errorf("reading log: %w", err)
	}
	defer iter.Close()

	var found string
	err = iter.ForEach(func(c *object.Commit) error {
		r, ok := index[c.Hash]
		if !ok {
			return nil
		}
		if tag := highestSemver(r.tags); tag != "" {
			found = tag
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return found, nil
}

func highestSemver(tags []string) string {
	var best string
	var bestVersion *semver.Version
	for _, t := range tags {
		v, err := semver.NewVersion(t)
		if err != nil {
			continue
		}
		if bestVersion == nil || v.GreaterThan(bestVersion) {
			best, bestVersion = t, v
		}
	}
	return best
}
