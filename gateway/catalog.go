package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/xFoundry/baseql-mcp/gqlquery"
)

// Operation names exposed to clients.
const (
	OpQuery           = "query"
	OpGetTableSchema  = "getTableSchema"
	OpListTables      = "listTables"
	OpQueryTable      = "queryTable"
	OpSearchTable     = "searchTable"
	OpGetFieldOptions = "getFieldOptions"
)

// ParameterDef describes one argument of an operation. The catalog derives
// each operation's JSON Schema from its parameters.
type ParameterDef struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"` // JSON Schema type: string, integer, object, array
	Optional    bool           `json:"optional,omitempty"`
	Default     any            `json:"default,omitempty"`
	Enum        []string       `json:"enum,omitempty"`
	Minimum     *int           `json:"minimum,omitempty"`
	Maximum     *int           `json:"maximum,omitempty"`
	Items       map[string]any `json:"items,omitempty"`
	Description string         `json:"description,omitempty"`
}

// Operation is a catalog entry: the name, documentation and argument
// contract of one gateway operation.
type Operation struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  []ParameterDef `json:"parameters"`
	Examples    []string       `json:"examples,omitempty"`

	schema *gojsonschema.Schema
	run    runFunc
}

type runFunc func(ctx context.Context, s *Service, args json.RawMessage) (any, error)

// InputSchema returns the JSON Schema object for the operation's arguments.
// Required strings must be non-empty; optional parameters also accept null.
func (o Operation) InputSchema() map[string]any {
	props := make(map[string]any, len(o.Parameters))
	required := []string{}
	for _, p := range o.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Optional {
			prop["type"] = []string{p.Type, "null"}
		} else {
			required = append(required, p.Name)
			if p.Type == "string" {
				prop["minLength"] = 1
			}
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		if p.Items != nil {
			prop["items"] = p.Items
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// RawInputSchema is InputSchema marshaled to JSON.
func (o Operation) RawInputSchema() json.RawMessage {
	raw, err := json.Marshal(o.InputSchema())
	if err != nil {
		// The schema is built from plain maps and slices.
		panic(fmt.Sprintf("gateway: marshal schema for %s: %v", o.Name, err))
	}
	return raw
}

// validate checks raw arguments against the operation schema.
func (o *Operation) validate(args json.RawMessage) error {
	result, err := o.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return &gqlquery.Error{
			Code:    gqlquery.ErrInvalidArgument,
			Message: fmt.Sprintf("arguments for %s are not a JSON object: %v", o.Name, err),
			Err:     err,
		}
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		problems = append(problems, re.String())
	}
	return &gqlquery.Error{
		Code:    gqlquery.ErrInvalidArgument,
		Message: fmt.Sprintf("invalid arguments for %s: %s", o.Name, strings.Join(problems, "; ")),
		Details: map[string]any{"operation": o.Name, "errors": problems},
	}
}

// bind adapts a typed Service method to a runFunc.
func bind[Req, Res any](fn func(*Service, context.Context, Req) (Res, error)) runFunc {
	return func(ctx context.Context, s *Service, args json.RawMessage) (any, error) {
		var req Req
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, &gqlquery.Error{
				Code:    gqlquery.ErrInvalidArgument,
				Message: fmt.Sprintf("decode arguments: %v", err),
				Err:     err,
			}
		}
		res, err := fn(s, ctx, req)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

func intRef(n int) *int { return &n }

var tableNameParam = ParameterDef{
	Name:        "tableName",
	Type:        "string",
	Description: "Table name as exposed by BaseQL (see listTables).",
}

var sortItems = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"field":     map[string]any{"type": "string", "minLength": 1},
		"direction": map[string]any{"type": "string", "enum": []string{"asc", "desc"}},
	},
	"required":             []string{"field"},
	"additionalProperties": false,
}

var fieldsItems = map[string]any{"type": "string"}

// catalog lists every operation in presentation order.
var catalog = mustCompile([]Operation{
	{
		Name: OpQuery,
		Description: "Run a raw GraphQL query against BaseQL. Filters use _filter: {field: value}, " +
			"sorting uses _order_by: {field: \"asc\"|\"desc\"}, pagination uses _page_size and _page. " +
			"Numbers are Float.",
		Parameters: []ParameterDef{
			{Name: "query", Type: "string", Description: "GraphQL document."},
			{Name: "variables", Type: "object", Optional: true, Description: "GraphQL variables."},
			{Name: "operationName", Type: "string", Optional: true, Description: "Operation to run when the document holds several."},
		},
		Examples: []string{`{"query": "{ people(_page_size: 5) { id name } }"}`},
		run:      bind((*Service).Query),
	},
	{
		Name:        OpGetTableSchema,
		Description: "Describe one table: its fields with their types. Returns null when the table does not exist.",
		Parameters:  []ParameterDef{tableNameParam},
		Examples:    []string{`{"tableName": "people"}`},
		run:         bind((*Service).GetTableSchema),
	},
	{
		Name:        OpListTables,
		Description: "List the tables available in the connected base.",
		Parameters:  []ParameterDef{},
		Examples:    []string{`{}`},
		run: bind(func(s *Service, ctx context.Context, _ ListTablesRequest) (*ListTablesResult, error) {
			return s.ListTables(ctx)
		}),
	},
	{
		Name:        OpQueryTable,
		Description: "Fetch records from a table with optional field selection, filter, sort and pagination.",
		Parameters: []ParameterDef{
			tableNameParam,
			{Name: "fields", Type: "array", Optional: true, Items: fieldsItems, Description: "Fields to return. Defaults to id and __typename."},
			{Name: "filter", Type: "object", Optional: true, Description: "Exact-match filter, e.g. {\"status\": \"Active\"}."},
			{Name: "sort", Type: "array", Optional: true, Items: sortItems, Description: "Sort order, e.g. [{\"field\": \"name\", \"direction\": \"asc\"}]."},
			{Name: "limit", Type: "integer", Optional: true, Minimum: intRef(1), Maximum: intRef(gqlquery.MaxPageSize), Description: "Page size."},
			{Name: "offset", Type: "integer", Optional: true, Minimum: intRef(0), Description: "Record offset, rounded down to the containing page."},
		},
		Examples: []string{
			`{"tableName": "people", "fields": ["name", "email"], "filter": {"status": "Active"}, "limit": 20}`,
		},
		run: bind((*Service).QueryTable),
	},
	{
		Name: OpSearchTable,
		Description: "Search a table for a term in a text field. Only the first searchable field is used; " +
			"the response names the field searched and the ones skipped.",
		Parameters: []ParameterDef{
			tableNameParam,
			{Name: "searchTerm", Type: "string", Description: "Value to match."},
			{Name: "fields", Type: "array", Optional: true, Items: fieldsItems, Description: "Candidate text fields. Defaults to common name and title fields."},
			{Name: "limit", Type: "integer", Optional: true, Default: DefaultSearchLimit, Minimum: intRef(1), Maximum: intRef(gqlquery.MaxPageSize)},
		},
		Examples: []string{`{"tableName": "people", "searchTerm": "Ada"}`},
		run:      bind((*Service).SearchTable),
	},
	{
		Name:        OpGetFieldOptions,
		Description: "Sample a table and report the distinct values of one field with their counts.",
		Parameters: []ParameterDef{
			tableNameParam,
			{Name: "fieldName", Type: "string", Description: "Field to aggregate."},
			{Name: "sampleSize", Type: "integer", Optional: true, Default: DefaultSampleSize, Minimum: intRef(1), Maximum: intRef(gqlquery.MaxPageSize)},
		},
		Examples: []string{`{"tableName": "people", "fieldName": "status"}`},
		run:      bind((*Service).GetFieldOptions),
	},
})

func mustCompile(ops []Operation) []Operation {
	for i := range ops {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(ops[i].InputSchema()))
		if err != nil {
			panic(fmt.Sprintf("gateway: compile schema for %s: %v", ops[i].Name, err))
		}
		ops[i].schema = schema
	}
	return ops
}

// Operations returns the operation catalog in presentation order.
func Operations() []Operation {
	out := make([]Operation, len(catalog))
	copy(out, catalog)
	return out
}

// OperationNames returns the catalog's operation names in order.
func OperationNames() []string {
	names := make([]string, len(catalog))
	for i, op := range catalog {
		names[i] = op.Name
	}
	return names
}

func lookup(name string) (*Operation, bool) {
	for i := range catalog {
		if catalog[i].Name == name {
			return &catalog[i], true
		}
	}
	return nil, false
}
