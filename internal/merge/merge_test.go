// Package merge tests stream merging and staged overwrites.
// Related: internal/merge/merge.go, internal/merge/plan.go
// Tags: merge, overwrite, prepend, append, atomic

package merge

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{ after string }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.after != "" {
		n := copy(p, r.after)
		r.after = r.after[n:]
		return n, nil
	}
	return 0, errors.New("boom")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestConcat(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		existing *string
		policy   Policy
		want     string
	}{
		"prepend":             {existing: ptr("E"), policy: Prepend, want: "NE"},
		"append":              {existing: ptr("E"), policy: Append, want: "EN"},
		"prepend empty":       {existing: ptr(""), policy: Prepend, want: "N"},
		"append empty":        {existing: ptr(""), policy: Append, want: "N"},
		"no existing prepend": {policy: Prepend, want: "N"},
		"no existing append":  {policy: Append, want: "N"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var existing io.Reader
			if tt.existing != nil {
				existing = strings.NewReader(*tt.existing)
			}

			var buf bytes.Buffer
			err := Concat(&buf, strings.NewReader("N"), existing, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func ptr(s string) *string { return &s }

func TestOverwriteAppend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "CHANGELOG.md", "A")

	require.NoError(t, OverwriteAppend(path, strings.NewReader("B")))
	assert.Equal(t, "AB", readFile(t, path))
}

func TestOverwritePrepend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "CHANGELOG.md", "A")
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, OverwritePrepend(path, strings.NewReader("B")))
	assert.Equal(t, "BA", readFile(t, path))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestOverwritePrepend_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "CHANGELOG.md")

	require.NoError(t, OverwritePrepend(path, strings.NewReader("B")))
	assert.Equal(t, "B", readFile(t, path))
}

func TestOverwritePrepend_FailureKeepsOriginal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "CHANGELOG.md", "A")

	err := OverwritePrepend(path, &failingReader{after: "partial"})
	require.Error(t, err)
	assert.Equal(t, "A", readFile(t, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReplace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "CHANGELOG.md", "old history")

	require.NoError(t, Replace(path, strings.NewReader("all blocks")))
	assert.Equal(t, "all blocks", readFile(t, path))
}

func TestWriteFile_LeavesInfileAlone(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "in.md", "E")
	out := filepath.Join(dir, "out.md")

	f, err := os.Open(in)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, WriteFile(out, strings.NewReader("N"), f, Prepend))
	assert.Equal(t, "NE", readFile(t, out))
	assert.Equal(t, "E", readFile(t, in))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		req     Request
		want    Plan
		wantErr error
	}{
		"stdout": {
			req:  Request{},
			want: Plan{Mode: ModeStream, Policy: Prepend},
		},
		"infile to stdout": {
			req:  Request{Infile: "CHANGELOG.md"},
			want: Plan{Mode: ModeStream, Policy: Prepend, Infile: "CHANGELOG.md"},
		},
		"same infile and outfile implies overwrite": {
			req:  Request{Infile: "CHANGELOG.md", Outfile: "CHANGELOG.md"},
			want: Plan{Mode: ModeOverwritePrepend, Policy: Prepend, Infile: "CHANGELOG.md", Outfile: "CHANGELOG.md"},
		},
		"overwrite append": {
			req:  Request{Infile: "CHANGELOG.md", Overwrite: true, Append: true},
			want: Plan{Mode: ModeOverwriteAppend, Policy: Append, Infile: "CHANGELOG.md", Outfile: "CHANGELOG.md"},
		},
		"overwrite all blocks": {
			req:  Request{Infile: "CHANGELOG.md", Overwrite: true, AllBlocks: true},
			want: Plan{Mode: ModeReplace, Policy: Prepend, Outfile: "CHANGELOG.md"},
		},
		"all blocks ignores infile": {
			req:  Request{Infile: "CHANGELOG.md", Outfile: "out.md", AllBlocks: true},
			want: Plan{Mode: ModeStream, Policy: Prepend, Outfile: "out.md"},
		},
		"overwrite without infile": {
			req:     Request{Overwrite: true},
			wantErr: ErrNothingToOverwrite,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Infile != "", got.ReadsExisting())
		})
	}
}

func TestPlan_Execute(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		req        Request
		infile     string
		wantFile   string
		wantStdout string
	}{
		"prepend to stdout": {
			req:        Request{Infile: "in.md"},
			infile:     "E",
			wantFile:   "E",
			wantStdout: "NE",
		},
		"append to stdout": {
			req:        Request{Infile: "in.md", Append: true},
			infile:     "E",
			wantFile:   "E",
			wantStdout: "EN",
		},
		"overwrite prepend": {
			req:      Request{Infile: "in.md", Overwrite: true},
			infile:   "A",
			wantFile: "NA",
		},
		"overwrite append": {
			req:      Request{Infile: "in.md", Overwrite: true, Append: true},
			infile:   "A",
			wantFile: "AN",
		},
		"all blocks ignores infile content": {
			req:        Request{Infile: "in.md", AllBlocks: true},
			infile:     "E",
			wantFile:   "E",
			wantStdout: "N",
		},
		"all blocks overwrite replaces": {
			req:      Request{Infile: "in.md", Overwrite: true, AllBlocks: true},
			infile:   "E",
			wantFile: "N",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			req := tt.req
			req.Infile = writeFile(t, dir, req.Infile, tt.infile)

			plan, err := Resolve(req)
			require.NoError(t, err)

			var stdout bytes.Buffer
			require.NoError(t, plan.Execute(strings.NewReader("N"), &stdout))
			assert.Equal(t, tt.wantStdout, stdout.String())
			assert.Equal(t, tt.wantFile, readFile(t, req.Infile))
		})
	}
}

func TestPlan_ExecuteMissingInfile(t *testing.T) {
	t.Parallel()

	plan, err := Resolve(Request{Infile: filepath.Join(t.TempDir(), "missing.md")})
	require.NoError(t, err)

	var stdout bytes.Buffer
	require.NoError(t, plan.Execute(strings.NewReader("N"), &stdout))
	assert.Equal(t, "N", stdout.String())
}
