package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cognicore/captionsort/pkg/captionsort"
	"github.com/cognicore/captionsort/pkg/captionsort/caption"
	"github.com/cognicore/captionsort/pkg/captionsort/counts"
	"github.com/cognicore/captionsort/pkg/captionsort/groups"
	"github.com/cognicore/captionsort/pkg/captionsort/internalerr"
	"github.com/cognicore/captionsort/pkg/captionsort/store"
)

// Printer writes the console report of a run.
type Printer struct {
	w  io.Writer
	st styles
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w, st: newStyles(lipgloss.NewRenderer(w))}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) heading(title string) {
	p.printf("\n%s\n", p.st.title.Render(title))
}

// Banned lists the distinct banned tags removed from captions.
func (p *Printer) Banned(tags []string) {
	if len(tags) == 0 {
		return
	}
	p.heading(fmt.Sprintf("Banned tags removed (%d)", len(tags)))
	for _, tag := range tags {
		p.printf("%s\n", p.st.indent.Render(tag))
	}
}

// Groups prints the classified groups of every entry.
func (p *Printer) Groups(entries []*caption.Entry) {
	p.heading("Groups per caption")
	for _, e := range entries {
		p.printf("%s\n", e.ID)
		for _, g := range e.Groups {
			name := p.st.group.Render(fmt.Sprintf("%s (%d)", g.Name, g.Priority))
			p.printf("%s: %s\n", p.st.indent.Render(name), strings.Join(g.Tags, caption.Separator))
		}
	}
}

// Counts prints up to limit tags by descending corpus count. A limit of 0
// prints every tag.
func (p *Printer) Counts(c counts.Counts, limit int) {
	sorted := c.Sorted()
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	p.heading(fmt.Sprintf("Tag counts (%d distinct, %d total)", len(c), c.Total()))
	for _, tc := range sorted {
		p.printf("%s  %s\n", p.st.count.Render(fmt.Sprint(tc.Count)), tc.Tag)
	}
}

// Pruned lists the tags dropped below the count threshold.
func (p *Printer) Pruned(tags []string, c counts.Counts, threshold int64) {
	if len(tags) == 0 {
		return
	}
	p.heading(fmt.Sprintf("Tags under threshold %d removed (%d)", threshold, len(tags)))
	for _, tag := range tags {
		p.printf("%s %s\n", p.st.indent.Render(tag), p.st.muted.Render(fmt.Sprintf("(%d)", c.Get(tag))))
	}
}

// Unsorted prints a keep or drop decision for every tag that matched no
// group.
func (p *Printer) Unsorted(tags []counts.UnsortedTag, threshold int64) {
	if len(tags) == 0 {
		return
	}
	p.heading("Unsorted tags")
	for _, u := range tags {
		verdict := p.st.drop.Render("drop")
		if u.Count >= threshold {
			verdict = p.st.keep.Render("keep")
		}
		p.printf("%s %s %s\n", p.st.indent.Render(verdict), u.Tag, p.st.muted.Render(fmt.Sprintf("(%d)", u.Count)))
	}
}

// Unresolved explains which tags block the run and where they occur.
func (p *Printer) Unresolved(tags []counts.UnsortedTag) {
	if len(tags) == 0 {
		return
	}
	p.heading(p.st.err.Render(fmt.Sprintf("%d unsorted tag(s) need a group", len(tags))))
	for _, u := range tags {
		p.printf("%s %s in %s\n",
			p.st.indent.Render(u.Tag),
			p.st.muted.Render(fmt.Sprintf("(%d)", u.Count)),
			strings.Join(u.Entries, ", "))
	}
	p.printf("Add them to a group file or to the banned list, then run again.\n")
}

// Previews prints the rendered line of every entry, unsorted tags included.
func (p *Printer) Previews(entries []*caption.Entry) {
	p.heading("Preview")
	for _, e := range entries {
		p.printf("%s: %s\n", p.st.group.Render(e.ID), e.Preview())
	}
}

// Summary prints the one-line outcome of a run.
func (p *Printer) Summary(res *captionsort.Result) {
	p.heading("Summary")
	p.printf("run %s: %d caption(s), %d written, %s\n",
		res.RunID, len(res.Entries), res.Written, p.outcome(res.Outcome))
	p.printf("%s\n", p.st.muted.Render(fmt.Sprintf(
		"removed: %d empty, %d banned, %d pruned",
		res.EmptyRemoved, res.BannedRemoved, res.PrunedRemoved)))
}

// Registry prints every group with its priority, then any tag that belongs to
// more than one group.
func (p *Printer) Registry(reg *groups.Registry) {
	p.heading(fmt.Sprintf("Groups (%d)", reg.Len()))
	for _, g := range reg.Groups() {
		line := fmt.Sprintf("%4d %s %s", g.Priority, p.st.group.Render(g.Name),
			p.st.muted.Render(fmt.Sprintf("%d tag(s)", len(g.Tags))))
		if _, ranked := reg.Priority(g.Name); !ranked {
			line += " " + p.st.warn.Render("unranked")
		}
		p.printf("%s\n", line)
	}
	p.Duplicates(reg.Validate())
}

// Duplicates lists tags defined in more than one group.
func (p *Printer) Duplicates(dups []internalerr.DuplicateTag) {
	if len(dups) == 0 {
		p.printf("%s\n", p.st.keep.Render("no duplicate tags"))
		return
	}
	p.heading(p.st.err.Render(fmt.Sprintf("Tags in more than one group (%d)", len(dups))))
	for _, d := range dups {
		p.printf("%s in [%s]\n", p.st.indent.Render(d.Tag), strings.Join(d.Groups, ", "))
	}
}

// History lists past runs, newest first.
func (p *Printer) History(runs []store.RunSummary) {
	if len(runs) == 0 {
		p.printf("no runs recorded\n")
		return
	}
	p.heading("Runs")
	for _, r := range runs {
		p.printf("%s  %s  %-10s %5d caption(s) %5d written %5d tag(s)  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), p.outcome(r.Outcome),
			r.Entries, r.Written, r.DistinctTags, p.st.muted.Render(r.Root))
	}
}

// Run prints one recorded run with its top counts.
func (p *Printer) Run(run store.Run, top int) {
	p.heading("Run " + run.ID)
	p.printf("started:   %s\n", run.StartedAt.Local().Format(time.DateTime))
	p.printf("root:      %s\n", run.Root)
	p.printf("outcome:   %s\n", p.outcome(run.Outcome))
	p.printf("captions:  %d (%d written)\n", run.Entries, run.Written)
	p.printf("settings:  threshold=%d keep_first_n=%d\n", run.Threshold, run.KeepFirstN)

	list := run.Counts
	if top > 0 && len(list) > top {
		list = list[:top]
	}
	p.heading(fmt.Sprintf("Top tags (%d of %d)", len(list), len(run.Counts)))
	for _, tc := range list {
		p.printf("%s  %s\n", p.st.count.Render(fmt.Sprint(tc.Count)), tc.Tag)
	}

	p.Banned(run.Banned)
	if len(run.Pruned) > 0 {
		p.heading(fmt.Sprintf("Pruned (%d)", len(run.Pruned)))
		p.printf("%s\n", p.st.indent.Render(strings.Join(run.Pruned, ", ")))
	}
	if len(run.Unsorted) > 0 {
		p.heading(p.st.err.Render(fmt.Sprintf("Unresolved (%d)", len(run.Unsorted))))
		for _, tc := range run.Unsorted {
			p.printf("%s %s\n", p.st.indent.Render(tc.Tag), p.st.muted.Render(fmt.Sprintf("(%d)", tc.Count)))
		}
	}
}

func (p *Printer) outcome(o store.Outcome) string {
	if st, ok := p.st.outcome[string(o)]; ok {
		return st.Render(string(o))
	}
	return string(o)
}
