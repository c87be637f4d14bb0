package collections

import (
	"cmp"
	"fmt"
	"slices"
)

// Set is a generic set backed by a map with zero-size values
type Set[T comparable] map[T]struct{}

// NewSet creates a Set holding vs
func NewSet[T comparable](vs ...T) Set[T] {
	s := Set[T]{}
	s.Add(vs...)
	return s
}

// Add inserts vs, ignoring values already present
func (s Set[T]) Add(vs ...T) {
	for _, v := range vs {
		s[v] = struct{}{}
	}
}

// Has reports whether v is in the set
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Members returns the values in unspecified order
func (s Set[T]) Members() []T {
	r := make([]T, 0, len(s))
	for v := range s {
		r = append(r, v)
	}
	return r
}

// String formats the sorted-by-%v members, e.g. "[a b]"
func (s Set[T]) String() string {
	members := make([]string, 0, len(s))
	for v := range s {
		members = append(members, fmt.Sprint(v))
	}
	slices.Sort(members)
	return fmt.Sprint(members)
}

// Sorted returns the members of s in ascending order
func Sorted[T cmp.Ordered](s Set[T]) []T {
	members := s.Members()
	slices.Sort(members)
	return members
}
