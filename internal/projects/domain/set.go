package domain

import (
	"encoding/json"
	"sort"
)

// Set is an immutable set of string tags (library keys, UI component names).
// Every method that changes membership returns a new Set; the receiver is
// never modified, so Sets can be shared between project values.
type Set struct {
	items []string // sorted, unique
}

// NewSet builds a Set from the given members, dropping duplicates.
func NewSet(members ...string) Set {
	if len(members) == 0 {
		return Set{}
	}
	items := make([]string, len(members))
	copy(items, members)
	sort.Strings(items)

	out := items[:1]
	for _, m := range items[1:] {
		if m != out[len(out)-1] {
			out = append(out, m)
		}
	}
	return Set{items: out}
}

func (s Set) Len() int { return len(s.items) }

func (s Set) Has(member string) bool {
	i := sort.SearchStrings(s.items, member)
	return i < len(s.items) && s.items[i] == member
}

// Add returns a Set that also contains member.
func (s Set) Add(member string) Set {
	i := sort.SearchStrings(s.items, member)
	if i < len(s.items) && s.items[i] == member {
		return s
	}
	items := make([]string, 0, len(s.items)+1)
	items = append(items, s.items[:i]...)
	items = append(items, member)
	items = append(items, s.items[i:]...)
	return Set{items: items}
}

// Delete returns a Set without member.
func (s Set) Delete(member string) Set {
	i := sort.SearchStrings(s.items, member)
	if i >= len(s.items) || s.items[i] != member {
		return s
	}
	if len(s.items) == 1 {
		return Set{}
	}
	items := make([]string, 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)
	return Set{items: items}
}

// Toggle removes member when present and adds it otherwise.
func (s Set) Toggle(member string) Set {
	if s.Has(member) {
		return s.Delete(member)
	}
	return s.Add(member)
}

func (s Set) Equal(o Set) bool {
	if len(s.items) != len(o.items) {
		return false
	}
	for i := range s.items {
		if s.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

// Slice returns the members in sorted order. The result is a copy.
func (s Set) Slice() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	*s = NewSet(members...)
	return nil
}
