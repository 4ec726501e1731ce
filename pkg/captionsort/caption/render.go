package caption

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/captionsort/pkg/captionsort/internalerr"
	"github.com/cognicore/captionsort/pkg/captionsort/tokenize"
)

// SortGroups orders the tags of every group by descending token length.
func (e *Entry) SortGroups(lengths tokenize.Lengther) {
	for i := range e.Groups {
		SortTags(e.Groups[i].Tags, lengths)
	}
}

// SortTags sorts tags in place, longest token length first. Tags of equal
// length keep their relative order.
func SortTags(tags []string, lengths tokenize.Lengther) {
	type keyed struct {
		tag string
		n   int
	}
	ks := make([]keyed, len(tags))
	for i, tag := range tags {
		ks[i] = keyed{tag: tag, n: lengths.Length(tag)}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		return ks[i].n > ks[j].n
	})
	for i := range ks {
		tags[i] = ks[i].tag
	}
}

// Ordered returns the entry's tags flattened by ascending group priority.
// Groups of equal priority keep the order classification produced them in.
func (e *Entry) Ordered() []string {
	ordered := make([]AssignedGroup, len(e.Groups))
	copy(ordered, e.Groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	var tags []string
	for _, g := range ordered {
		tags = append(tags, g.Tags...)
	}
	return tags
}

// Preview renders the caption line without the unsorted check.
func (e *Entry) Preview() string {
	return strings.Join(e.Ordered(), Separator)
}

// Render returns the caption line to write back. It refuses while the entry
// still holds unsorted tags.
func (e *Entry) Render() (string, error) {
	if len(e.UnsortedTags()) > 0 {
		return "", fmt.Errorf("render %s: %w", e.ID, internalerr.ErrUnsortedRemaining)
	}
	return e.Preview(), nil
}
