package render

import (
	"github.com/Masterminds/semver/v3"
	"github.com/ariel-frischer/chglog/internal/commit"
	"github.com/ariel-frischer/chglog/internal/release"
)

// View is the data the main template executes against.
type View struct {
	Context    Context
	Block      release.Block
	Version    string
	Date       string
	Unreleased bool
	IsPatch    bool
	Count      int
	Groups     []GroupView
	NoteGroups []NoteGroupView
}

// GroupTitles lists the group titles in display order.
func (v View) GroupTitles() []string {
	return v.Block.GroupTitles()
}

// GroupView is a group whose commits are ready for the commit template.
type GroupView struct {
	Key     string
	Title   string
	Commits []CommitView
}

// NoteGroupView is a note group whose notes carry their commit view.
type NoteGroupView struct {
	Title string
	Notes []NoteView
}

// NoteView pairs a note with the commit it came from.
type NoteView struct {
	Title  string
	Text   string
	Commit CommitView
}

// CommitView is the data the commit template executes against.
type CommitView struct {
	*commit.Commit
	Context *Context
}

// CommitURL links the commit hash, or returns "" when linking is off.
func (v CommitView) CommitURL() string {
	if v.Context == nil || !v.Context.Links() || v.Hash == "" {
		return ""
	}
	return v.Context.RepoURL + "/" + v.Context.CommitPath + "/" + v.Hash
}

// IssueURL links a reference, honouring cross-repository references.
func (v CommitView) IssueURL(r commit.Reference) string {
	if v.Context == nil || !v.Context.Links() {
		return ""
	}
	base := v.Context.RepoURL
	if r.Owner != "" && r.Repository != "" && v.Context.Host != "" {
		base = v.Context.Host + "/" + r.Owner + "/" + r.Repository
	}
	return base + "/" + v.Context.IssuePath + "/" + r.Issue
}

// IssueLink renders a reference as a Markdown link when linking is on.
func (v CommitView) IssueLink(r commit.Reference) string {
	label := r.Prefix + r.Issue
	if r.Owner != "" && r.Repository != "" {
		label = r.Owner + "/" + r.Repository + label
	}
	if url := v.IssueURL(r); url != "" {
		return "[" + label + "](" + url + ")"
	}
	return label
}

// Summary is the subject when the header matched, the raw header otherwise.
func (v CommitView) Summary() string {
	if s := v.Subject(); s != "" {
		return s
	}
	return v.Header
}

func newView(b release.Block, ctx *Context) View {
	v := View{
		Context:    *ctx,
		Block:      b,
		Version:    b.Version,
		Date:       b.Date,
		Unreleased: b.IsUnreleased(),
		Count:      b.Count,
	}
	if v.Unreleased {
		v.Version = ctx.Version
		v.Date = ctx.Date
	}
	if sv, err := semver.NewVersion(v.Version); err == nil {
		v.IsPatch = sv.Patch() != 0
	}

	for _, g := range b.Groups {
		gv := GroupView{Key: g.Key, Title: g.Title, Commits: make([]CommitView, 0, len(g.Commits))}
		for _, c := range g.Commits {
			gv.Commits = append(gv.Commits, CommitView{Commit: c, Context: ctx})
		}
		v.Groups = append(v.Groups, gv)
	}

	for _, ng := range b.NoteGroups {
		nv := NoteGroupView{Title: ng.Title}
		for _, n := range ng.Notes {
			nv.Notes = append(nv.Notes, NoteView{
				Title:  n.Title,
				Text:   n.Text,
				Commit: CommitView{Commit: n.Commit, Context: ctx},
			})
		}
		v.NoteGroups = append(v.NoteGroups, nv)
	}

	return v
}
