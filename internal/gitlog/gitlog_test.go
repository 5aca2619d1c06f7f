// Package gitlog tests commit extraction from in-memory repositories.
// Related: internal/gitlog/gitlog.go, internal/gitlog/refs.go
// Tags: git, log, tags, decoration

package gitlog

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/chglog/internal/commit"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type testRepo struct {
	t    *testing.T
	repo *git.Repository
	fs   billy.Filesystem
	n    int
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	require.NoError(t, err)
	return &testRepo{t: t, repo: repo, fs: fs}
}

// commit writes file and commits it one hour after the previous commit.
func (r *testRepo) commit(file, msg string) plumbing.Hash {
	r.t.Helper()
	r.n++

	f, err := r.fs.Create(file)
	require.NoError(r.t, err)
	_, err = f.Write([]byte(msg))
	require.NoError(r.t, err)
	require.NoError(r.t, f.Close())

	wt, err := r.repo.Worktree()
	require.NoError(r.t, err)
	_, err = wt.Add(file)
	require.NoError(r.t, err)

	h, err := wt.Commit(msg, &git.CommitOptions{Author: &object.Signature{
		Name:  "Dev",
		Email: "dev@example.com",
		When:  epoch.Add(time.Duration(r.n) * time.Hour),
	}})
	require.NoError(r.t, err)
	return h
}

func (r *testRepo) tag(name string, h plumbing.Hash, annotated bool) {
	r.t.Helper()
	var opts *git.CreateTagOptions
	if annotated {
		opts = &git.CreateTagOptions{
			Message: "release " + name,
			Tagger:  &object.Signature{Name: "Dev", Email: "dev@example.com", When: epoch},
		}
	}
	_, err := r.repo.CreateTag(name, h, opts)
	require.NoError(r.t, err)
}

func collect(t *testing.T, src *Source) []commit.Raw {
	t.Helper()
	out := make(chan commit.Raw, 64)
	require.NoError(t, src.Commits(context.Background(), out))
	close(out)

	var raws []commit.Raw
	for r := range out {
		raws = append(raws, r)
	}
	return raws
}

func messages(raws []commit.Raw) []string {
	out := make([]string, 0, len(raws))
	for _, r := range raws {
		out = append(out, r.Message)
	}
	return out
}

func TestCommits_NewestFirstWithDecorations(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	first := r.commit("a.txt", "feat: first")
	second := r.commit("b.txt", "fix: second")
	r.commit("c.txt", "feat: third")
	r.tag("v1.0.0", first, false)
	r.tag("v1.1.0", second, true)

	raws := collect(t, New(r.repo, Options{}, nil))

	assert.Equal(t, []string{"feat: third", "fix: second", "feat: first"}, messages(raws))
	assert.Equal(t, " (HEAD -> master)", raws[0].Tags)
	assert.Equal(t, " (tag: v1.1.0)", raws[1].Tags)
	assert.Equal(t, " (tag: v1.0.0)", raws[2].Tags)
	assert.Equal(t, "Dev", raws[0].Author.Name)
	assert.Equal(t, "dev@example.com", raws[0].Committer.Email)
	assert.True(t, epoch.Add(3*time.Hour).Equal(raws[0].Date), raws[0].Date)
	assert.Len(t, raws[0].Hash, 40)
}

func TestCommits_Selection(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts Options
		want []string
	}{
		"all":            {opts: Options{}, want: []string{"four", "three", "two", "one"}},
		"from tag":       {opts: Options{From: "v1.0.0"}, want: []string{"four", "three"}},
		"from last tag":  {opts: Options{FromLastTag: true}, want: []string{"four", "three"}},
		"to revision":    {opts: Options{To: "v1.0.0"}, want: []string{"two", "one"}},
		"max count":      {opts: Options{MaxCount: 2}, want: []string{"four", "three"}},
		"reverse":        {opts: Options{Reverse: true}, want: []string{"one", "two", "three", "four"}},
		"path filter":    {opts: Options{Paths: []string{"docs"}}, want: []string{"three", "one"}},
		"path and range": {opts: Options{From: "v1.0.0", Paths: []string{"./docs/"}}, want: []string{"three"}},
	}

	r := newTestRepo(t)
	r.commit("docs/one.md", "one")
	two := r.commit("src/two.go", "two")
	r.commit("docs/three.md", "three")
	r.commit("src/four.go", "four")
	r.tag("v1.0.0", two, false)

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			raws := collect(t, New(r.repo, tt.opts, nil))
			assert.Equal(t, tt.want, messages(raws))
		})
	}
}

func TestCommits_EmptyRepository(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	assert.Empty(t, collect(t, New(r.repo, Options{}, nil)))
}

func TestCommits_UnknownRevision(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commit("a.txt", "one")

	out := make(chan commit.Raw, 8)
	err := New(r.repo, Options{From: "nope"}, nil).Commits(context.Background(), out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestCommits_StopsOnCancel(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	for i := 0; i < 5; i++ {
		r.commit("a.txt", "change "+string(rune('a'+i)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan commit.Raw)
	done := make(chan error, 1)
	go func() { done <- New(r.repo, Options{}, nil).Commits(ctx, out) }()

	<-out
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestLastTag(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	assertLastTag := func(want string) {
		t.Helper()
		got, err := New(r.repo, Options{}, nil).LastTag()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assertLastTag("")

	one := r.commit("a.txt", "one")
	r.tag("not-a-version", one, false)
	assertLastTag("")

	r.tag("v0.9.0", one, false)
	r.tag("v1.0.0", one, true)
	two := r.commit("b.txt", "two")
	assertLastTag("v1.0.0")

	r.tag("v1.1.0", two, false)
	assertLastTag("v1.1.0")
}

func TestOptions_Merge(t *testing.T) {
	t.Parallel()

	got := Options{Path: "repo", MaxCount: 5}.Merge(Options{From: "v1.0.0", Reverse: true})
	assert.Equal(t, Options{Path: "repo", From: "v1.0.0", MaxCount: 5, Reverse: true}, got)
}
