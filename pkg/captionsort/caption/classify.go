package caption

import (
	"fmt"

	"github.com/cognicore/captionsort/pkg/captionsort/groups"
	"github.com/cognicore/captionsort/pkg/captionsort/internalerr"
)

// Classify assigns the entry's tags to groups:
//  1. the first keepFirstN tags go to keep_tokens,
//  2. each classifiable group, in registry order, takes its members,
//  3. whatever is left goes to unsorted.
//
// Within a group tags keep the order they had in the caption. Empty groups
// are omitted. The entry is left unchanged when an error is returned.
func (e *Entry) Classify(reg *groups.Registry, keepFirstN int) error {
	if len(e.Groups) > 0 {
		return fmt.Errorf("classify %s: %w", e.ID, internalerr.ErrAlreadyClassified)
	}

	working := make([]string, len(e.RawTags))
	copy(working, e.RawTags)

	var assigned []AssignedGroup

	if keepFirstN > 0 && len(working) > 0 {
		keep, ok := reg.Find(groups.KeepTokens)
		if !ok {
			return missingGroup(groups.KeepTokens)
		}
		n := min(keepFirstN, len(working))
		kept := make([]string, n)
		copy(kept, working[:n])
		working = working[n:]
		assigned = append(assigned, AssignedGroup{Priority: keep.Priority, Name: keep.Name, Tags: kept})
	}

	for _, g := range reg.Classifiable() {
		if len(working) == 0 {
			break
		}
		var matched, rest []string
		for _, tag := range working {
			if g.Has(tag) {
				matched = append(matched, tag)
			} else {
				rest = append(rest, tag)
			}
		}
		if len(matched) == 0 {
			continue
		}
		assigned = append(assigned, AssignedGroup{Priority: g.Priority, Name: g.Name, Tags: matched})
		working = rest
	}

	if len(working) > 0 {
		unsorted, ok := reg.Find(groups.Unsorted)
		if !ok {
			return missingGroup(groups.Unsorted)
		}
		assigned = append(assigned, AssignedGroup{Priority: unsorted.Priority, Name: unsorted.Name, Tags: working})
	}

	e.Groups = assigned
	return nil
}

func missingGroup(name string) error {
	return &internalerr.ConfigurationError{
		Reason: "group " + name + " is not defined",
		Err:    internalerr.ErrMissingReservedGroup,
	}
}
