package merge

import (
	"errors"
	"io"
)

// ErrNothingToOverwrite is returned when overwrite is requested without an infile.
var ErrNothingToOverwrite = errors.New("Nothing to overwrite")

// Request is the raw output selection as given on the command line.
type Request struct {
	Infile    string
	Outfile   string
	Overwrite bool
	Append    bool
	AllBlocks bool
}

// Mode is how a Plan delivers the generated stream.
type Mode int

const (
	// ModeStream writes to Outfile, or to stdout when Outfile is empty,
	// merging Infile when set.
	ModeStream Mode = iota
	// ModeOverwriteAppend appends to the infile in place.
	ModeOverwriteAppend
	// ModeOverwritePrepend stages generated plus infile and renames over the infile.
	ModeOverwritePrepend
	// ModeReplace stages generated alone and renames over the destination.
	ModeReplace
)

func (m Mode) String() string {
	switch m {
	case ModeOverwriteAppend:
		return "overwrite-append"
	case ModeOverwritePrepend:
		return "overwrite-prepend"
	case ModeReplace:
		return "replace"
	default:
		return "stream"
	}
}

// Plan is a resolved Request.
type Plan struct {
	Mode   Mode
	Policy Policy
	// Infile is the existing content to merge; empty when none is read.
	Infile string
	// Outfile is the destination; empty means stdout.
	Outfile string
}

// Resolve turns r into a Plan. An infile equal to the outfile implies
// overwrite. All-blocks mode never reads existing content.
func Resolve(r Request) (Plan, error) {
	overwrite := r.Overwrite
	if r.Infile != "" && r.Infile == r.Outfile {
		overwrite = true
	}
	if overwrite && r.Infile == "" {
		return Plan{}, ErrNothingToOverwrite
	}

	p := Plan{Policy: Prepend, Infile: r.Infile, Outfile: r.Outfile}
	if r.Append {
		p.Policy = Append
	}
	if overwrite {
		p.Outfile = r.Infile
	}

	switch {
	case r.AllBlocks:
		p.Infile = ""
		if overwrite {
			p.Mode = ModeReplace
		}
	case overwrite && r.Append:
		p.Mode = ModeOverwriteAppend
	case overwrite:
		p.Mode = ModeOverwritePrepend
	}
	return p, nil
}

// Execute delivers generated according to the plan. stdout receives the
// result when the plan has no outfile. A missing infile is treated as empty.
func (p Plan) Execute(generated io.Reader, stdout io.Writer) error {
	switch p.Mode {
	case ModeOverwriteAppend:
		return OverwriteAppend(p.Outfile, generated)
	case ModeOverwritePrepend:
		return OverwritePrepend(p.Outfile, generated)
	case ModeReplace:
		return Replace(p.Outfile, generated)
	}

	var existingReader io.Reader
	if p.ReadsExisting() {
		existing, err := openExisting(p.Infile)
		if err != nil {
			return err
		}
		if existing != nil {
			defer existing.Close()
			existingReader = existing
		}
	}

	if p.Outfile == "" {
		return Concat(stdout, generated, existingReader, p.Policy)
	}
	return WriteFile(p.Outfile, generated, existingReader, p.Policy)
}

// ReadsExisting reports whether the plan merges existing content.
func (p Plan) ReadsExisting() bool {
	return p.Infile != "" && p.Mode != ModeReplace
}
