// Package nodeid manipulates hierarchical test identifiers of the form
// file::[class::]name[params].
package nodeid

import (
	"regexp"
	"strings"
)

const (
	// Delimiter separates the scope segments of an identifier.
	Delimiter = "::"
	// FileMarker appears in the first segment of a fully-qualified identifier.
	FileMarker = "."

	instanceMarker = "()"
)

var parametersPattern = regexp.MustCompile(`\[.+\]$`)

// Normalize removes synthetic "()" instance segments so that
// "f.py::C::()::t" and "f.py::C::t" collapse to the same identifier.
func Normalize(id string) string {
	if !strings.Contains(id, instanceMarker) {
		return id
	}
	parts := strings.Split(id, Delimiter)
	kept := parts[:0]
	for idx, part := range parts {
		if part == instanceMarker && idx > 0 {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, Delimiter)
}

// StripParameterization removes a trailing bracketed parameter tag.
func StripParameterization(id string) string {
	return parametersPattern.ReplaceAllString(id, "")
}

// AncestorScopes returns every strict ancestor scope of id, most specific first.
func AncestorScopes(id string) []string {
	var scopes []string
	for {
		cut := strings.LastIndex(id, Delimiter)
		if cut < 0 {
			return scopes
		}
		id = id[:cut]
		if id == "" {
			return scopes
		}
		scopes = append(scopes, id)
	}
}

// Names returns the identifier, its unparameterized form and all of its
// ancestor scopes, without duplicates.
func Names(id string) []string {
	id = Normalize(id)
	names := []string{id}
	stripped := StripParameterization(id)
	if stripped != id {
		names = append(names, stripped)
	}
	return append(names, AncestorScopes(stripped)...)
}

// ResolveRelative qualifies ref using the identifier of the item that
// declared it. A bare name is placed next to scope, a name without a file
// marker in its first segment is placed in scope's file, and anything else is
// already absolute.
func ResolveRelative(ref, scope string) string {
	parts := strings.Split(ref, Delimiter)
	switch {
	case len(parts) == 1:
		ref = enclosing(scope) + Delimiter + ref
	case !strings.Contains(parts[0], FileMarker):
		ref = File(scope) + Delimiter + ref
	}
	return Normalize(ref)
}

// File returns the first segment of id.
func File(id string) string {
	if cut := strings.Index(id, Delimiter); cut >= 0 {
		return id[:cut]
	}
	return id
}

func enclosing(id string) string {
	if cut := strings.LastIndex(id, Delimiter); cut >= 0 {
		return id[:cut]
	}
	return id
}
