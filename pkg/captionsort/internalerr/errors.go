package internalerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrDuplicateMembership  = errors.New("tag belongs to more than one group")
	ErrMissingReservedGroup = errors.New("reserved group missing")
	ErrUnresolvedTags       = errors.New("unresolved unsorted tags")
	ErrUnsortedRemaining    = errors.New("entry still has unsorted tags")
	ErrAlreadyClassified    = errors.New("entry already classified")
	ErrDeclined             = errors.New("rewrite declined")
)

// DuplicateTag is a tag listed by more than one group definition.
type DuplicateTag struct {
	Tag    string
	Groups []string
}

// ConfigurationError is fatal: the run stops before any caption is classified.
type ConfigurationError struct {
	Reason     string
	Duplicates []DuplicateTag
	Err        error
}

func (e *ConfigurationError) Error() string {
	if len(e.Duplicates) == 0 {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	parts := make([]string, 0, len(e.Duplicates))
	for _, d := range e.Duplicates {
		parts = append(parts, fmt.Sprintf("%q in [%s]", d.Tag, strings.Join(d.Groups, ", ")))
	}
	return fmt.Sprintf("configuration: %s: %v: %s", e.Reason, e.Err, strings.Join(parts, "; "))
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UnresolvedClassificationError reports tags left in the unsorted group after
// pruning. Source files are left untouched when it is returned.
type UnresolvedClassificationError struct {
	Tags []string
}

func (e *UnresolvedClassificationError) Error() string {
	return fmt.Sprintf("%d unsorted tag(s) need a group: %s", len(e.Tags), strings.Join(e.Tags, ", "))
}

func (e *UnresolvedClassificationError) Unwrap() error { return ErrUnresolvedTags }
