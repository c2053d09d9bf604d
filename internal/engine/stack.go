package engine

import "github.com/arbilina/lumi-agent-engine/internal/domain"

// Item is a supplement recommendation before catalog enrichment
type Item struct {
	Rationale string
	Dose      string
	Cluster   domain.Cluster
}

// Stack accumulates supplement recommendations keyed by supplement
// name, preserving insertion order. Name uniqueness is the dedup
// invariant: a later rule that references an existing name mutates it
// in place rather than adding a duplicate.
type Stack struct {
	names   []string
	entries map[string]*Item
}

// NewStack returns an empty accumulator
func NewStack() *Stack {
	return &Stack{entries: make(map[string]*Item)}
}

// Add inserts an item if the name is not already present. It reports
// whether the insert happened.
func (s *Stack) Add(name string, item Item) bool {
	if _, ok := s.entries[name]; ok {
		return false
	}
	s.names = append(s.names, name)
	s.entries[name] = &item
	return true
}

// Has reports whether a supplement is already in the stack
func (s *Stack) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Mutate applies fn to an existing item, reporting whether the name
// was present
func (s *Stack) Mutate(name string, fn func(*Item)) bool {
	item, ok := s.entries[name]
	if !ok {
		return false
	}
	fn(item)
	return true
}

// Len returns the number of items in the stack
func (s *Stack) Len() int {
	return len(s.names)
}

// Each visits items in insertion order
func (s *Stack) Each(fn func(name string, item Item)) {
	for _, name := range s.names {
		fn(name, *s.entries[name])
	}
}
