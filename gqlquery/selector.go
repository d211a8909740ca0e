package gqlquery

import (
	"fmt"
	"regexp"
)

var nameRe = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// ValidateName checks that name is a GraphQL Name, the only thing that may be
// embedded into a generated document as an identifier. kind names the role of
// the value ("table", "field", ...) in the error message.
func ValidateName(kind, name string) error {
	if nameRe.MatchString(name) {
		return nil
	}
	return invalidArgument(
		fmt.Sprintf("invalid %s name %q: must match [_A-Za-z][_0-9A-Za-z]*", kind, name),
		map[string]any{"kind": kind, "value": name},
	)
}

// FieldSelection validates a requested projection and removes duplicates
// while preserving order. An empty request selects DefaultSelection.
func FieldSelection(requested []string) ([]string, error) {
	if len(requested) == 0 {
		out := make([]string, len(DefaultSelection))
		copy(out, DefaultSelection)
		return out, nil
	}

	seen := make(map[string]bool, len(requested))
	var ordered []string
	for _, name := range requested {
		if err := ValidateName("field", name); err != nil {
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			ordered = append(ordered, name)
		}
	}
	return ordered, nil
}

// TypeRef is an introspected type reference (possibly wrapped).
type TypeRef struct {
	Name   string   `json:"name,omitempty"`
	Kind   string   `json:"kind"`
	OfType *TypeRef `json:"ofType,omitempty"`
}

// IntrospectedField is one entry of __type.fields.
type IntrospectedField struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Type        TypeRef `json:"type"`
}

// IntrospectedType is the subset of a __type payload the gateway reads.
type IntrospectedType struct {
	Name        string              `json:"name"`
	Kind        string              `json:"kind"`
	Description string              `json:"description,omitempty"`
	Fields      []IntrospectedField `json:"fields"`
}

// DescriptorsFromType flattens an introspected type into field descriptors.
// A single NON_NULL wrapper is unwrapped, so a String! field reports as a
// String scalar. Returns nil for a nil type.
func DescriptorsFromType(t *IntrospectedType) []FieldDescriptor {
	if t == nil {
		return nil
	}
	out := make([]FieldDescriptor, 0, len(t.Fields))
	for _, f := range t.Fields {
		ref := f.Type
		if ref.Kind == "NON_NULL" && ref.OfType != nil {
			ref = *ref.OfType
		}
		out = append(out, FieldDescriptor{Name: f.Name, TypeName: ref.Name, TypeKind: ref.Kind})
	}
	return out
}

// DefaultSearchFields are the text fields tried when a search names none.
var DefaultSearchFields = []string{"firstName", "lastName", "fullName", "email", "name", "title"}

// SearchableFields narrows candidates to fields present in descs that are
// String scalars, keeping candidate order. Empty candidates means
// DefaultSearchFields. The result may be empty; callers treat that as an error.
func SearchableFields(descs []FieldDescriptor, candidates []string) []string {
	if len(candidates) == 0 {
		candidates = DefaultSearchFields
	}

	byName := make(map[string]FieldDescriptor, len(descs))
	for _, d := range descs {
		byName[d.Name] = d
	}

	var out []string
	seen := make(map[string]bool, len(candidates))
	for _, name := range candidates {
		d, ok := byName[name]
		if !ok || seen[name] {
			continue
		}
		if d.TypeKind == "SCALAR" && d.TypeName == "String" {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
