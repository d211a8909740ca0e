package gqlquery

import (
	"fmt"
	"strings"
)

// ParseSortSpecs validates sort specifications and fills in defaults.
// Direction must be exactly "asc" or "desc"; an empty direction means "asc".
// Field names must be valid GraphQL names since they are embedded bare.
//
// Example input:  [{Field: "priority", Direction: "desc"}, {Field: "name"}]
// Returns:        [{Field: "priority", Direction: Desc}, {Field: "name", Direction: Asc}]
func ParseSortSpecs(raw []SortSpec) ([]SortSpec, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	specs := make([]SortSpec, 0, len(raw))
	for i, spec := range raw {
		if spec.Field == "" {
			return nil, invalidArgument("sort entry requires a field name",
				map[string]any{"index": i})
		}
		if err := ValidateName("sort field", spec.Field); err != nil {
			return nil, err
		}

		dir := spec.Direction
		switch dir {
		case "":
			dir = Asc
		case Asc, Desc:
		default:
			return nil, invalidArgument(
				fmt.Sprintf("sort direction must be 'asc' or 'desc', got %q", string(spec.Direction)),
				map[string]any{"field": spec.Field, "value": string(spec.Direction)},
			)
		}
		specs = append(specs, SortSpec{Field: spec.Field, Direction: dir})
	}
	return specs, nil
}

// EncodeOrderBy renders sort specs as a BaseQL _order_by object literal.
// A field listed more than once keeps the position of its first occurrence
// and the direction of its last. Returns "" when specs is empty.
//
// Specs are validated again here so EncodeOrderBy is safe to call on
// unparsed input.
//
// Usage:
//
//	EncodeOrderBy([]SortSpec{{Field: "name", Direction: Desc}, {Field: "age"}})
//	// {name:"desc",age:"asc"}
func EncodeOrderBy(specs []SortSpec) (string, error) {
	specs, err := ParseSortSpecs(specs)
	if err != nil {
		return "", err
	}
	if len(specs) == 0 {
		return "", nil
	}

	var order []string
	dirs := make(map[string]Direction, len(specs))
	for _, spec := range specs {
		if _, seen := dirs[spec.Field]; !seen {
			order = append(order, spec.Field)
		}
		dirs[spec.Field] = spec.Direction
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, field := range order {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s:%q", field, string(dirs[field]))
	}
	b.WriteByte('}')
	return b.String(), nil
}
