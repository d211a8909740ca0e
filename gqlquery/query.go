package gqlquery

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Operation names used for generated documents.
const (
	QueryTableOperation   = "QueryTable"
	SearchTableOperation  = "SearchTable"
	FieldOptionsOperation = "FieldOptions"
)

// DefaultSelection is the projection used when no fields are requested.
var DefaultSelection = []string{"id", "__typename"}

// EncodeArgs renders the argument list of a root field.
// Fragments appear in a fixed order: _filter, _order_by, _page_size, _page.
// The result is wrapped in parentheses, or is "" when there are no fragments.
// Limit and offset are validated; sort specs and filter keys are validated
// by their encoders.
func EncodeArgs(a Args) (string, error) {
	page, err := ParsePage(a.Page.Limit, a.Page.Offset)
	if err != nil {
		return "", err
	}

	var fragments []string

	filter, err := EncodeFilter(a.Filter)
	if err != nil {
		return "", err
	}
	if filter != "" {
		fragments = append(fragments, "_filter: "+filter)
	}

	orderBy, err := EncodeOrderBy(a.Sort)
	if err != nil {
		return "", err
	}
	if orderBy != "" {
		fragments = append(fragments, "_order_by: "+orderBy)
	}

	fragments = append(fragments, pageFragments(page)...)

	if len(fragments) == 0 {
		return "", nil
	}
	return "(" + strings.Join(fragments, ", ") + ")", nil
}

// BuildQuery assembles a QueryTable document for table with the encoded
// arguments and field selection. An empty selection uses DefaultSelection.
//
// table and fields are embedded verbatim as structural identifiers; callers
// must run them through ValidateName (or FieldSelection) first.
func BuildQuery(table, args string, fields []string) string {
	return BuildNamedQuery(QueryTableOperation, table, args, fields)
}

// BuildNamedQuery is BuildQuery with an explicit operation name.
func BuildNamedQuery(operation, table, args string, fields []string) string {
	if len(fields) == 0 {
		fields = DefaultSelection
	}
	var b strings.Builder
	fmt.Fprintf(&b, "query %s {\n", operation)
	fmt.Fprintf(&b, "  %s%s {\n", table, args)
	for _, f := range fields {
		b.WriteString("    ")
		b.WriteString(f)
		b.WriteByte('\n')
	}
	b.WriteString("  }\n}")
	return b.String()
}

// CheckDocument parses doc and reports syntax errors. Generated documents are
// checked before they leave the process so a translation bug surfaces as an
// internal error rather than an upstream one.
func CheckDocument(doc string) error {
	_, err := parser.ParseQuery(&ast.Source{Name: "generated", Input: doc})
	if err != nil {
		return &Error{
			Code:    ErrInternal,
			Message: fmt.Sprintf("generated query is not valid GraphQL: %s", err),
			Details: map[string]any{"query": doc},
			Err:     err,
		}
	}
	return nil
}
