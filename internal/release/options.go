package release

import (
	"fmt"

	"github.com/ariel-frischer/chglog/internal/transform"
)

// GroupOrder selects how groups are ordered inside a block.
type GroupOrder string

const (
	// OrderTitle sorts groups alphabetically by display title.
	OrderTitle GroupOrder = "title"
	// OrderPrecedence follows Options.GroupPrecedence; unlisted keys follow in title order.
	OrderPrecedence GroupOrder = "precedence"
	// OrderEncounter keeps the order in which keys first appear in the stream.
	OrderEncounter GroupOrder = "encounter"
)

// Options configures grouping, sorting and segmentation.
type Options struct {
	// GroupBy names the commit field whose value selects the group.
	GroupBy string
	// Fallback collects commits without a group key under FallbackTitle
	// instead of excluding them.
	Fallback      bool
	FallbackTitle string
	// GroupTitles maps group keys to display titles.
	GroupTitles map[string]string
	GroupOrder  GroupOrder
	// GroupPrecedence lists group keys in display order for OrderPrecedence.
	GroupPrecedence []string
	// CommitsSort lists the fields compared, in order, to sort commits in a group.
	CommitsSort []string
	// NoteOrder orders note groups; only OrderTitle and OrderEncounter apply.
	NoteOrder GroupOrder
	// NoteTitles maps note keywords to display titles.
	NoteTitles map[string]string
	// GenerateOn decides where a new block starts.
	GenerateOn Predicate
	// AllBlocks emits the whole history instead of the most recent block.
	AllBlocks bool
	// Transform is the writer-stage hook applied before segmentation.
	Transform transform.Func
}

// WithDefaults fills unset options.
func (o Options) WithDefaults() Options {
	if o.GroupBy == "" {
		o.GroupBy = "type"
	}
	if o.GroupOrder == "" {
		o.GroupOrder = OrderTitle
	}
	if o.NoteOrder == "" {
		o.NoteOrder = OrderTitle
	}
	if len(o.CommitsSort) == 0 {
		o.CommitsSort = []string{o.GroupBy, "scope"}
	}
	if o.GenerateOn == nil {
		o.GenerateOn = ValidVersion
	}
	return o
}

// Validate reports options that cannot be honoured.
func (o Options) Validate() error {
	switch o.GroupOrder {
	case "", OrderTitle, OrderPrecedence, OrderEncounter:
	default:
		return fmt.Errorf("unknown group order %q (expected: title, precedence, encounter)", o.GroupOrder)
	}
	switch o.NoteOrder {
	case "", OrderTitle, OrderEncounter:
	default:
		return fmt.Errorf("unknown note order %q (expected: title, encounter)", o.NoteOrder)
	}
	if o.GroupOrder == OrderPrecedence && len(o.GroupPrecedence) == 0 {
		return fmt.Errorf("group order %q requires a group precedence list", OrderPrecedence)
	}
	return nil
}

// title returns the display title for a group key.
func (o Options) title(key string) string {
	if key == "" {
		return o.FallbackTitle
	}
	if t, ok := o.GroupTitles[key]; ok {
		return t
	}
	return key
}
