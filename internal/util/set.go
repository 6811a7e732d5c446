package util

import (
	"maps"
	"slices"
	"strings"
)

// Set is a generic set of comparable values
type Set[K comparable] map[K]struct{}

// SetOf creates a set holding the given elements
func SetOf[K comparable](elements ...K) Set[K] {
	s := make(Set[K], len(elements))
	for _, elem := range elements {
		s[elem] = struct{}{}
	}
	return s
}

// Add inserts key into the set
func (s Set[K]) Add(key K) {
	s[key] = struct{}{}
}

// Remove deletes key from the set
func (s Set[K]) Remove(key K) {
	delete(s, key)
}

// Contains reports whether key is present
func (s Set[K]) Contains(key K) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of elements
func (s Set[K]) Len() int {
	return len(s)
}

// Sorted returns the members of a string set in order
func Sorted[K ~string](s Set[K]) []K {
	return slices.SortedFunc(maps.Keys(s), func(a, b K) int {
		return strings.Compare(string(a), string(b))
	})
}
