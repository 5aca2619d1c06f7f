package release

import (
	"sort"

	"github.com/ariel-frischer/chglog/internal/commit"
)

// Group is a titled bucket of commits sharing one group key.
type Group struct {
	Key     string
	Title   string
	Commits []*commit.Commit
}

// GroupedNote is a note together with the commit that carried it.
type GroupedNote struct {
	commit.Note
	Commit *commit.Commit
}

// NoteGroup collects the notes of one title (e.g. BREAKING CHANGE) in a block.
type NoteGroup struct {
	Title string
	Notes []GroupedNote
}

// Segment is an ungrouped run of commits attributed to one block.
// Key is the commit that opened it; nil for the unreleased segment.
type Segment struct {
	Key     *commit.Commit
	Commits []*commit.Commit
}

// Block is one release section of the changelog.
type Block struct {
	// Version is empty for the unreleased block.
	Version    string
	Date       string
	KeyCommit  *commit.Commit
	Groups     []Group
	NoteGroups []NoteGroup
	// Count is the number of commits placed in groups.
	Count int
}

// IsUnreleased reports whether the block has no version.
func (b Block) IsUnreleased() bool {
	return b.Version == ""
}

// GroupTitles returns the titles of the block's groups in display order.
func (b Block) GroupTitles() []string {
	titles := make([]string, 0, len(b.Groups))
	for _, g := range b.Groups {
		titles = append(titles, g.Title)
	}
	return titles
}

// Build groups and sorts the commits of seg.
func Build(seg Segment, opts Options) Block {
	opts = opts.WithDefaults()

	b := Block{KeyCommit: seg.Key}
	if seg.Key != nil {
		b.Version = seg.Key.Version
		b.Date = seg.Key.CommitterDate
	}

	b.Groups = groupCommits(seg.Commits, opts)
	for _, g := range b.Groups {
		b.Count += len(g.Commits)
	}
	b.NoteGroups = groupNotes(seg.Commits, opts)

	return b
}

// groupCommits partitions commits by the GroupBy field. Every commit lands in
// exactly one group, or in none when it has no key and no fallback is set.
func groupCommits(commits []*commit.Commit, opts Options) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, c := range commits {
		key := c.Field(opts.GroupBy)
		if key == "" && !opts.Fallback {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Title: opts.title(key)})
		}
		groups[i].Commits = append(groups[i].Commits, c)
	}

	for i := range groups {
		sortCommits(groups[i].Commits, opts.CommitsSort)
	}
	sortGroups(groups, opts)

	return groups
}

func groupNotes(commits []*commit.Commit, opts Options) []NoteGroup {
	var groups []NoteGroup
	index := make(map[string]int)

	for _, c := range commits {
		for _, n := range c.Notes {
			title := noteTitle(n.Title, opts)
			i, ok := index[title]
			if !ok {
				i = len(groups)
				index[title] = i
				groups = append(groups, NoteGroup{Title: title})
			}
			groups[i].Notes = append(groups[i].Notes, GroupedNote{Note: n, Commit: c})
		}
	}

	if opts.NoteOrder == OrderTitle {
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].Title < groups[j].Title
		})
	}
	return groups
}

func noteTitle(keyword string, opts Options) string {
	if t, ok := opts.NoteTitles[keyword]; ok {
		return t
	}
	return keyword
}

func sortGroups(groups []Group, opts Options) {
	switch opts.GroupOrder {
	case OrderTitle:
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].Title < groups[j].Title
		})
	case OrderPrecedence:
		rank := make(map[string]int, len(opts.GroupPrecedence))
		for i, key := range opts.GroupPrecedence {
			rank[key] = i
		}
		sort.SliceStable(groups, func(i, j int) bool {
			ri, iok := rank[groups[i].Key]
			rj, jok := rank[groups[j].Key]
			switch {
			case iok && jok:
				return ri < rj
			case iok != jok:
				return iok
			default:
				return groups[i].Title < groups[j].Title
			}
		})
	}
}

// sortCommits orders commits by each field in turn. The sort is stable, so
// commits with equal keys keep their stream order.
func sortCommits(commits []*commit.Commit, fields []string) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(commits, func(i, j int) bool {
		for _, f := range fields {
			a, b := commits[i].Field(f), commits[j].Field(f)
			if a != b {
				return a < b
			}
		}
		return false
	})
}
