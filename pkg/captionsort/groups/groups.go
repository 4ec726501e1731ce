package groups

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cognicore/captionsort/pkg/captionsort/internalerr"
)

// Reserved group names used by the classifier.
const (
	KeepTokens = "keep_tokens"
	Unsorted   = "unsorted"
)

// FallbackPriority is assigned to groups missing from the ordering table.
const FallbackPriority = 999

// DefaultOrder ranks groups by output position; lower index comes first.
var DefaultOrder = []string{
	KeepTokens,
	"primary_features",
	"hair_features",
	"accessories",
	"body_features",
	"poses",
	"makeup",
	"position_view",
	"clothing",
	"actions",
	"other",
	"style",
	"nsfw",
	Unsorted,
	"background",
}

// TagGroup is a named, ranked set of tags loaded from one definition file.
type TagGroup struct {
	Name     string
	Priority int
	Tags     []string // definition order, deduplicated
	members  map[string]struct{}
}

// Has reports whether tag is a member of the group.
func (g TagGroup) Has(tag string) bool {
	_, ok := g.members[tag]
	return ok
}

// Registry holds the tag groups of one run in insertion order.
type Registry struct {
	order  map[string]int
	groups []TagGroup
	index  map[string]int
	logger *zap.Logger
}

// NewRegistry creates an empty registry ranking groups by order.
// A nil order uses DefaultOrder.
func NewRegistry(order []string, logger *zap.Logger) *Registry {
	if order == nil {
		order = DefaultOrder
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ranks := make(map[string]int, len(order))
	for i, name := range order {
		if _, ok := ranks[name]; !ok {
			ranks[name] = i
		}
	}
	return &Registry{
		order:  ranks,
		index:  make(map[string]int),
		logger: logger,
	}
}

// Priority returns the rank of name in the ordering table, or
// FallbackPriority when it is not listed.
func (r *Registry) Priority(name string) (int, bool) {
	p, ok := r.order[name]
	if !ok {
		return FallbackPriority, false
	}
	return p, true
}

// Add registers a group. Adding a name twice replaces the earlier definition
// in place.
func (r *Registry) Add(name string, tags []string) TagGroup {
	priority, ranked := r.Priority(name)
	if ranked {
		r.logger.Debug("group registered", zap.String("group", name), zap.Int("priority", priority))
	} else {
		r.logger.Warn("group not in ordering table, using fallback priority",
			zap.String("group", name), zap.Int("priority", priority))
	}

	g := TagGroup{
		Name:     name,
		Priority: priority,
		members:  make(map[string]struct{}, len(tags)),
	}
	for _, tag := range tags {
		if _, dup := g.members[tag]; dup {
			continue
		}
		g.members[tag] = struct{}{}
		g.Tags = append(g.Tags, tag)
	}

	if i, ok := r.index[name]; ok {
		r.groups[i] = g
		return g
	}
	r.index[name] = len(r.groups)
	r.groups = append(r.groups, g)
	return g
}

// Find returns the group with the given name.
func (r *Registry) Find(name string) (TagGroup, bool) {
	i, ok := r.index[name]
	if !ok {
		return TagGroup{}, false
	}
	return r.groups[i], true
}

// Groups returns all groups in registry order.
func (r *Registry) Groups() []TagGroup {
	out := make([]TagGroup, len(r.groups))
	copy(out, r.groups)
	return out
}

// Classifiable returns the groups the classifier scans, excluding the
// reserved keep_tokens and unsorted groups.
func (r *Registry) Classifiable() []TagGroup {
	out := make([]TagGroup, 0, len(r.groups))
	for _, g := range r.groups {
		if g.Name == KeepTokens || g.Name == Unsorted {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Len returns the number of groups.
func (r *Registry) Len() int {
	return len(r.groups)
}

// Validate returns every tag that belongs to more than one group, sorted by
// tag. Group names are listed in registry order.
func (r *Registry) Validate() []internalerr.DuplicateTag {
	owners := make(map[string][]string)
	for _, g := range r.groups {
		for _, tag := range g.Tags {
			owners[tag] = append(owners[tag], g.Name)
		}
	}

	var dups []internalerr.DuplicateTag
	for tag, names := range owners {
		if len(names) > 1 {
			dups = append(dups, internalerr.DuplicateTag{Tag: tag, Groups: names})
		}
	}
	sort.Slice(dups, func(i, j int) bool {
		return dups[i].Tag < dups[j].Tag
	})
	return dups
}

// Require checks the registry can drive a run: no tag may belong to two
// groups, unsorted must exist, and keep_tokens must exist when keepFirstN > 0.
func (r *Registry) Require(keepFirstN int) error {
	if dups := r.Validate(); len(dups) > 0 {
		return &internalerr.ConfigurationError{
			Reason:     "duplicate group membership",
			Duplicates: dups,
			Err:        internalerr.ErrDuplicateMembership,
		}
	}
	if _, ok := r.Find(Unsorted); !ok {
		return &internalerr.ConfigurationError{
			Reason: "group " + Unsorted + " is not defined",
			Err:    internalerr.ErrMissingReservedGroup,
		}
	}
	if keepFirstN > 0 {
		if _, ok := r.Find(KeepTokens); !ok {
			return &internalerr.ConfigurationError{
				Reason: "keep_first_n > 0 but group " + KeepTokens + " is not defined",
				Err:    internalerr.ErrMissingReservedGroup,
			}
		}
	}
	return nil
}
