package banlist

import "sort"

// Set holds tags that are stripped from every caption before classification.
type Set struct {
	tags map[string]struct{}
}

// New creates a banned-tag set. Blank entries are ignored.
func New(tags []string) *Set {
	s := &Set{tags: make(map[string]struct{}, len(tags))}
	for _, t := range tags {
		if t == "" {
			continue
		}
		s.tags[t] = struct{}{}
	}
	return s
}

// IsBanned checks if a tag is banned. A nil set bans nothing.
func (s *Set) IsBanned(tag string) bool {
	if s == nil {
		return false
	}
	_, ok := s.tags[tag]
	return ok
}

// Add bans a tag.
func (s *Set) Add(tag string) {
	s.tags[tag] = struct{}{}
}

// Remove unbans a tag.
func (s *Set) Remove(tag string) {
	delete(s.tags, tag)
}

// Len returns the number of banned tags.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tags)
}

// All returns all banned tags, sorted.
func (s *Set) All() []string {
	if s == nil {
		return nil
	}
	result := make([]string, 0, len(s.tags))
	for t := range s.tags {
		result = append(result, t)
	}
	sort.Strings(result)
	return result
}
