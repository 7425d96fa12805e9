// Package fieldpath resolves logical fields in schemaless JSON documents
// through an ordered list of candidate key paths.
package fieldpath

import "strings"

// Path is a sequence of nested object keys
type Path []string

func (p Path) String() string {
	return strings.Join(p, ".")
}

// P builds a Path from keys
func P(keys ...string) Path {
	return Path(keys)
}

// Lookup follows one path; ok is false if any step is missing, null, or not an object.
func Lookup(doc map[string]any, path Path) (any, bool) {
	var value any = doc
	for _, key := range path {
		obj, isObj := value.(map[string]any)
		if !isObj {
			return nil, false
		}
		value = obj[key]
		if value == nil {
			return nil, false
		}
	}
	return value, true
}

// Resolve returns the value of the first candidate path that is present.
func Resolve(doc map[string]any, candidates []Path) (any, bool) {
	for _, path := range candidates {
		if value, ok := Lookup(doc, path); ok {
			return value, true
		}
	}
	return nil, false
}
