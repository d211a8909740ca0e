package gqlquery

import "fmt"

// MaxPageSize is the upstream hard cap on _page_size.
const MaxPageSize = 100

// DefaultPageSize is the page size assumed when converting an offset without
// an explicit limit.
const DefaultPageSize = 100

// ParsePage validates optional limit/offset values.
//
// Conventions:
//   - limit, when given, must be in [1, MaxPageSize]
//   - offset, when given, must be >= 0
//   - nil means "not given" and is passed through
func ParsePage(limit, offset *int) (Page, error) {
	if limit != nil {
		if *limit < 1 || *limit > MaxPageSize {
			return Page{}, invalidArgument(
				fmt.Sprintf("limit must be between 1 and %d, got %d", MaxPageSize, *limit),
				map[string]any{"param": "limit", "value": *limit},
			)
		}
	}
	if offset != nil && *offset < 0 {
		return Page{}, invalidArgument(
			fmt.Sprintf("offset must be >= 0, got %d", *offset),
			map[string]any{"param": "offset", "value": *offset},
		)
	}
	return Page{Limit: limit, Offset: offset}, nil
}

// PageNumber converts a record offset into a 1-based BaseQL page number:
// floor(offset / pageSize) + 1, where pageSize is limit or DefaultPageSize
// when limit <= 0.
//
// BaseQL has no offset argument, so offsets that are not a multiple of the
// page size land on the page containing the offset, not on the exact record.
func PageNumber(offset, limit int) int {
	size := limit
	if size <= 0 {
		size = DefaultPageSize
	}
	return offset/size + 1
}

// pageFragments returns the _page_size and _page fragments for p, in that order.
func pageFragments(p Page) []string {
	var out []string
	if p.Limit != nil {
		out = append(out, fmt.Sprintf("_page_size: %d", *p.Limit))
	}
	if p.Offset != nil {
		limit := 0
		if p.Limit != nil {
			limit = *p.Limit
		}
		out = append(out, fmt.Sprintf("_page: %d", PageNumber(*p.Offset, limit)))
	}
	return out
}
