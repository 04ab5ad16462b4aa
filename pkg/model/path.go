package model

import (
	"strconv"
	"strings"
)

// Lookup walks record along a dotted path. Map keys and numeric slice
// indexes are supported. An exact key match for the whole path (flattened
// records such as {"doctor.name": "x"}) is preferred over traversal.
func Lookup(record Record, path string) (any, bool) {
	if record == nil || path == "" {
		return nil, false
	}
	if value, ok := record[path]; ok {
		return value, true
	}
	var current any = record
	for _, segment := range strings.Split(path, PathSeparator) {
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func step(current any, segment string) (any, bool) {
	switch node := current.(type) {
	case map[string]any:
		value, ok := node[segment]
		return value, ok
	case map[string]string:
		value, ok := node[segment]
		return value, ok
	case []any:
		idx, ok := sliceIndex(segment, len(node))
		if !ok {
			return nil, false
		}
		return node[idx], true
	case []map[string]any:
		idx, ok := sliceIndex(segment, len(node))
		if !ok {
			return nil, false
		}
		return node[idx], true
	default:
		return nil, false
	}
}

func sliceIndex(segment string, length int) (int, bool) {
	idx, err := strconv.Atoi(segment)
	if err != nil || idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}
