// Package merge combines a freshly generated changelog stream with existing
// changelog content and writes the result to its destination.
//
// Nothing here buffers a whole document: content is copied stream to stream.
// Writes that replace an existing file are staged in a temporary file in the
// same directory and renamed over the original once complete, so a failure
// at any point leaves the original untouched.
package merge

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Policy decides where generated content goes relative to existing content.
type Policy int

const (
	// Prepend writes generated content before existing content.
	Prepend Policy = iota
	// Append writes generated content after existing content.
	Append
)

func (p Policy) String() string {
	if p == Append {
		return "append"
	}
	return "prepend"
}

// Concat copies generated and existing to w in policy order. A nil existing
// reader is treated as empty.
func Concat(w io.Writer, generated, existing io.Reader, policy Policy) error {
	first, second := generated, existing
	if policy == Append {
		first, second = existing, generated
	}

	for _, r := range []io.Reader{first, second} {
		if r == nil {
			continue
		}
		if _, err := io.Copy(w, r); err != nil {
			return err
		}
	}
	return nil
}

// OverwriteAppend appends generated to the file at path, creating it when
// missing.
func OverwriteAppend(path string, generated io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s for append: %w", path, err)
	}

	if _, err := io.Copy(f, generated); err != nil {
		f.Close()
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// OverwritePrepend replaces the file at path with generated followed by the
// file's previous content. A missing file is treated as empty.
func OverwritePrepend(path string, generated io.Reader) error {
	return stage(path, func(w io.Writer) error {
		if _, err := io.Copy(w, generated); err != nil {
			return fmt.Errorf("writing generated changelog: %w", err)
		}

		existing, err := openExisting(path)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		defer existing.Close()

		if _, err := io.Copy(w, existing); err != nil {
			return fmt.Errorf("copying existing changelog: %w", err)
		}
		return nil
	})
}

// Replace writes generated to path, discarding whatever was there.
func Replace(path string, generated io.Reader) error {
	return stage(path, func(w io.Writer) error {
		if _, err := io.Copy(w, generated); err != nil {
			return fmt.Errorf("writing generated changelog: %w", err)
		}
		return nil
	})
}

// WriteFile writes the merge of generated and existing to path. It is the
// path for an outfile distinct from the infile.
func WriteFile(path string, generated, existing io.Reader, policy Policy) error {
	return stage(path, func(w io.Writer) error {
		return Concat(w, generated, existing, policy)
	})
}

// openExisting opens path for reading. It returns a nil file and no error
// when path is empty or does not exist.
func openExisting(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening existing changelog: %w", err)
	}
	return f, nil
}

// stage runs fill against a temporary file next to path and renames it over
// path once fill, the sync and the close all succeed. The original's
// permission bits are kept.
func stage(path string, fill func(w io.Writer) error) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath) // Best effort cleanup
		}
	}()

	if err := fill(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("setting temp file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	committed = true
	return nil
}
