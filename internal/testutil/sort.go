package testutil

import (
	"cmp"
	"maps"
	"slices"
)

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}

func sortedIDs[V any](m map[int64]V) []int64 {
	return sortedKeys(m)
}
