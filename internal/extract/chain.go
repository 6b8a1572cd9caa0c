// internal/extract/chain.go

// Package extract holds the schema-driven extraction primitives shared by
// every engine: path resolution over decoded data, text normalization and
// per-field extraction from DOM nodes or structured items.
package extract

import (
	"strconv"
	"strings"
)

var bracketReplacer = strings.NewReplacer("].", ".", "[", ".", "]", ".")

// Segments splits a path such as "data.items[0].name" into its steps
func Segments(path string) []string {
	parts := strings.Split(bracketReplacer.Replace(path), ".")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// Resolve walks data along path and returns the value found there. The
// boolean is false when a step is missing or a value on the way is falsy.
// An empty path resolves to data itself.
func Resolve(path string, data interface{}) (interface{}, bool) {
	current := data
	for _, segment := range Segments(path) {
		if IsFalsy(current) {
			return nil, false
		}
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func step(value interface{}, segment string) (interface{}, bool) {
	switch v := value.(type) {
	case map[string]interface{}:
		next, ok := v[segment]
		return next, ok
	case []interface{}:
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= len(v) {
			return nil, false
		}
		return v[index], true
	default:
		return nil, false
	}
}
