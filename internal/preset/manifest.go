package preset

import (
	"fmt"
	"regexp"

	"github.com/ariel-frischer/chglog/internal/commit"
	"github.com/ariel-frischer/chglog/internal/release"
	"github.com/ariel-frischer/chglog/internal/render"
	"github.com/ariel-frischer/chglog/internal/transform"
)

// Manifest is the declarative form of a preset as stored in preset.yaml.
type Manifest struct {
	Name      string               `yaml:"name"`
	Parser    commit.ParserOptions `yaml:"parser"`
	Transform TransformSpec        `yaml:"transform"`
	Writer    WriterSpec           `yaml:"writer"`
	// Templates names template files relative to the preset directory.
	Templates TemplateFiles `yaml:"templates"`
}

// TemplateFiles names the files holding each template fragment.
type TemplateFiles struct {
	Main   string `yaml:"main"`
	Header string `yaml:"header"`
	Commit string `yaml:"commit"`
	Footer string `yaml:"footer"`
}

// TransformSpec declares the parser-stage transform.
type TransformSpec struct {
	// TagPattern extracts the version from the ref decoration; its first
	// capture group is the version.
	TagPattern string `koanf:"tag_pattern" yaml:"tag_pattern"`
	DateLayout string `koanf:"date_layout" yaml:"date_layout"`
}

// Func builds the transform. Empty values fall back to the package defaults.
func (s TransformSpec) Func() (transform.Func, error) {
	var re *regexp.Regexp
	if s.TagPattern != "" {
		var err error
		if re, err = regexp.Compile(s.TagPattern); err != nil {
			return nil, fmt.Errorf("invalid tag_pattern: %w", err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("tag_pattern %q has no capture group", s.TagPattern)
		}
	}
	return transform.Chain(transform.TagVersion(re), transform.FormatDate(s.DateLayout)), nil
}

// ClipSpec declares a transform.ClipFields hook.
type ClipSpec struct {
	Total  int    `koanf:"total" yaml:"total"`
	First  string `koanf:"first" yaml:"first"`
	Second string `koanf:"second" yaml:"second"`
}

// WriterSpec declares grouping, sorting, writer-stage transforms and
// templates. It is shared by preset manifests and --writer-opts files; unset
// keys leave the preset's values alone.
type WriterSpec struct {
	GroupBy         string            `koanf:"group_by" yaml:"group_by"`
	Fallback        *bool             `koanf:"fallback" yaml:"fallback"`
	FallbackTitle   string            `koanf:"fallback_title" yaml:"fallback_title"`
	GroupTitles     map[string]string `koanf:"group_titles" yaml:"group_titles"`
	GroupOrder      string            `koanf:"group_order" yaml:"group_order"`
	GroupPrecedence []string          `koanf:"group_precedence" yaml:"group_precedence"`
	CommitsSort     []string          `koanf:"commits_sort" yaml:"commits_sort"`
	NoteOrder       string            `koanf:"note_order" yaml:"note_order"`
	NoteTitles      map[string]string `koanf:"note_titles" yaml:"note_titles"`
	GenerateOn      string            `koanf:"generate_on" yaml:"generate_on"`

	// Writer-stage transforms, applied in this order.
	RequireFields []string  `koanf:"require_fields" yaml:"require_fields"`
	KeepTypes     []string  `koanf:"keep_types" yaml:"keep_types"`
	Clip          *ClipSpec `koanf:"clip" yaml:"clip"`
	ShortHash     int       `koanf:"short_hash" yaml:"short_hash"`

	// Inline templates override the preset's template files.
	render.Templates `koanf:",squash" yaml:",inline"`
}

// ApplyTo overlays the set keys of s onto p.
func (s WriterSpec) ApplyTo(p *Preset) error {
	w := &p.Writer

	if s.GroupBy != "" {
		w.GroupBy = s.GroupBy
	}
	if s.Fallback != nil {
		w.Fallback = *s.Fallback
	}
	if s.FallbackTitle != "" {
		w.FallbackTitle = s.FallbackTitle
	}
	if len(s.GroupTitles) > 0 {
		w.GroupTitles = mergeMap(w.GroupTitles, s.GroupTitles)
	}
	if s.GroupOrder != "" {
		w.GroupOrder = release.GroupOrder(s.GroupOrder)
	}
	if len(s.GroupPrecedence) > 0 {
		w.GroupPrecedence = s.GroupPrecedence
	}
	if len(s.CommitsSort) > 0 {
		w.CommitsSort = s.CommitsSort
	}
	if s.NoteOrder != "" {
		w.NoteOrder = release.GroupOrder(s.NoteOrder)
	}
	if len(s.NoteTitles) > 0 {
		w.NoteTitles = mergeMap(w.NoteTitles, s.NoteTitles)
	}
	if s.GenerateOn != "" {
		pred, err := release.PredicateByName(s.GenerateOn)
		if err != nil {
			return err
		}
		w.GenerateOn = pred
	}

	var hooks []transform.Func
	for _, f := range s.RequireFields {
		hooks = append(hooks, transform.RequireField(f))
	}
	if len(s.KeepTypes) > 0 {
		hooks = append(hooks, transform.KeepTypes(s.KeepTypes...))
	}
	if s.Clip != nil {
		if s.Clip.Total <= 0 || s.Clip.First == "" {
			return fmt.Errorf("clip needs a positive total and a first field")
		}
		hooks = append(hooks, transform.ClipFields(s.Clip.Total, s.Clip.First, s.Clip.Second))
	}
	if s.ShortHash > 0 {
		hooks = append(hooks, transform.ShortHash(s.ShortHash))
	}
	if len(hooks) > 0 {
		w.Transform = transform.Chain(append([]transform.Func{w.Transform}, hooks...)...)
	}

	p.Templates = p.Templates.Merge(s.Templates)
	return w.Validate()
}

func mergeMap(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
