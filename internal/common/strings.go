package common

import (
	"cmp"
	"slices"
	"strings"
)

// UnknownStr is returned by String methods for values outside their enum.
const UnknownStr = "unknown"

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[M ~map[K]V, K cmp.Ordered, V any](m M) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// LastSegment returns the part after the final dot of a dotted name
// ("serializers.ModelSerializer" -> "ModelSerializer").
func LastSegment(dotted string) string {
	return dotted[strings.LastIndexByte(dotted, '.')+1:]
}
