package counts

import (
	"sort"

	"github.com/cognicore/captionsort/pkg/captionsort/caption"
	"github.com/cognicore/captionsort/pkg/captionsort/groups"
)

// Counts maps a tag to its number of occurrences across the corpus.
type Counts map[string]int64

// TagCount is one row of a sorted count listing.
type TagCount struct {
	Tag   string
	Count int64
}

// Aggregate counts every occurrence of every assigned tag across entries.
// Raw and banned tags are not counted.
func Aggregate(entries []*caption.Entry) Counts {
	c := make(Counts)
	for _, e := range entries {
		for _, g := range e.Groups {
			for _, tag := range g.Tags {
				c[tag]++
			}
		}
	}
	return c
}

// Get returns the count for a tag.
func (c Counts) Get(tag string) int64 {
	return c[tag]
}

// Total returns the number of tag occurrences.
func (c Counts) Total() int64 {
	var n int64
	for _, v := range c {
		n += v
	}
	return n
}

// Sorted returns the counts ordered by count descending, then tag.
func (c Counts) Sorted() []TagCount {
	out := make([]TagCount, 0, len(c))
	for tag, n := range c {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// Prune removes, from every group of every entry, the tags whose count in
// snapshot is below threshold. Decisions use the snapshot only, so pruning one
// entry never changes the outcome for another. Groups left empty are dropped.
// It returns the distinct tags removed, sorted.
func Prune(entries []*caption.Entry, snapshot Counts, threshold int64) []string {
	removed := make(map[string]struct{})
	for _, e := range entries {
		kept := e.Groups[:0]
		for _, g := range e.Groups {
			tags := make([]string, 0, len(g.Tags))
			for _, tag := range g.Tags {
				if snapshot[tag] < threshold {
					removed[tag] = struct{}{}
					continue
				}
				tags = append(tags, tag)
			}
			if len(tags) == 0 {
				continue
			}
			g.Tags = tags
			kept = append(kept, g)
		}
		e.Groups = kept
	}
	return sortedKeys(removed)
}

// UnsortedTag is a tag held by the unsorted group of one or more entries.
type UnsortedTag struct {
	Tag     string
	Count   int64
	Entries []string
}

// Unresolved lists tags still held by an unsorted group whose snapshot count
// reaches threshold. Rarer ones are noise and are not reported. The result is
// sorted by tag.
func Unresolved(entries []*caption.Entry, snapshot Counts, threshold int64) []UnsortedTag {
	byTag := make(map[string]*UnsortedTag)
	for _, e := range entries {
		for _, g := range e.Groups {
			if g.Name != groups.Unsorted {
				continue
			}
			for _, tag := range g.Tags {
				if snapshot[tag] < threshold {
					continue
				}
				u, ok := byTag[tag]
				if !ok {
					u = &UnsortedTag{Tag: tag, Count: snapshot[tag]}
					byTag[tag] = u
				}
				if n := len(u.Entries); n == 0 || u.Entries[n-1] != e.ID {
					u.Entries = append(u.Entries, e.ID)
				}
			}
		}
	}

	out := make([]UnsortedTag, 0, len(byTag))
	for _, u := range byTag {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Tag < out[j].Tag
	})
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
