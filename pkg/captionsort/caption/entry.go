package caption

import (
	"sort"
	"strings"

	"github.com/cognicore/captionsort/pkg/captionsort/banlist"
	"github.com/cognicore/captionsort/pkg/captionsort/groups"
)

// Separator joins tags when a caption is rendered.
const Separator = ", "

// Entry is one caption file: its tags as read and, after classification, the
// groups those tags were assigned to.
type Entry struct {
	ID       string // file stem
	Path     string
	Original string // first line as read, before any cleanup
	RawTags  []string
	Groups   []AssignedGroup
}

// AssignedGroup is the slice of an entry's tags that matched one group.
type AssignedGroup struct {
	Priority int
	Name     string
	Tags     []string
}

// NewEntry creates an entry from caption file content.
func NewEntry(id, path, content string) *Entry {
	line := FirstLine(content)
	return &Entry{
		ID:       id,
		Path:     path,
		Original: line,
		RawTags:  ParseTags(line),
	}
}

// FirstLine returns the first non-blank line of content, trimmed.
func FirstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// ParseTags splits a caption line on commas and trims each tag. Empty tags are
// kept so CleanupEmpty can account for them.
func ParseTags(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// CleanupEmpty drops tags that are empty after trimming and returns how many
// were dropped.
func (e *Entry) CleanupEmpty() int {
	kept := make([]string, 0, len(e.RawTags))
	for _, tag := range e.RawTags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		kept = append(kept, tag)
	}
	dropped := len(e.RawTags) - len(kept)
	e.RawTags = kept
	return dropped
}

// CleanupBanned drops every banned tag and returns the distinct tags removed,
// sorted.
func (e *Entry) CleanupBanned(banned *banlist.Set) []string {
	kept := make([]string, 0, len(e.RawTags))
	removed := make(map[string]struct{})
	for _, tag := range e.RawTags {
		if banned.IsBanned(tag) {
			removed[tag] = struct{}{}
			continue
		}
		kept = append(kept, tag)
	}
	e.RawTags = kept
	return sortedKeys(removed)
}

// Reset clears the group assignment so the entry can be classified again.
func (e *Entry) Reset() {
	e.Groups = nil
}

// Tags returns every assigned tag in group production order.
func (e *Entry) Tags() []string {
	var out []string
	for _, g := range e.Groups {
		out = append(out, g.Tags...)
	}
	return out
}

// UnsortedTags returns the tags currently held by the unsorted group.
func (e *Entry) UnsortedTags() []string {
	var out []string
	for _, g := range e.Groups {
		if g.Name == groups.Unsorted {
			out = append(out, g.Tags...)
		}
	}
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
