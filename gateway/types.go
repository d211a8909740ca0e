package gateway

import "github.com/xFoundry/baseql-mcp/gqlquery"

// RawQueryRequest is the argument set of the query operation.
type RawQueryRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// TableSchemaRequest is the argument set of getTableSchema.
type TableSchemaRequest struct {
	TableName string `json:"tableName"`
}

// ListTablesRequest is the (empty) argument set of listTables.
type ListTablesRequest struct{}

// QueryTableRequest is the argument set of queryTable.
type QueryTableRequest struct {
	TableName string              `json:"tableName"`
	Fields    []string            `json:"fields,omitempty"`
	Filter    map[string]any      `json:"filter,omitempty"`
	Sort      []gqlquery.SortSpec `json:"sort,omitempty"`
	Limit     *int                `json:"limit,omitempty"`
	Offset    *int                `json:"offset,omitempty"`
}

// SearchTableRequest is the argument set of searchTable.
type SearchTableRequest struct {
	TableName  string   `json:"tableName"`
	SearchTerm string   `json:"searchTerm"`
	Fields     []string `json:"fields,omitempty"`
	Limit      *int     `json:"limit,omitempty"`
}

// FieldOptionsRequest is the argument set of getFieldOptions.
type FieldOptionsRequest struct {
	TableName  string `json:"tableName"`
	FieldName  string `json:"fieldName"`
	SampleSize *int   `json:"sampleSize,omitempty"`
}

// TableInfo is one entry of a listTables response.
type TableInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListTablesResult is the listTables response.
type ListTablesResult struct {
	Tables []TableInfo `json:"tables"`
	Count  int         `json:"count"`
}

// QueryTableResult is the queryTable response.
type QueryTableResult struct {
	Table    string           `json:"table"`
	Count    int              `json:"count"`
	Page     int              `json:"page,omitempty"`
	PageSize int              `json:"pageSize,omitempty"`
	Records  []map[string]any `json:"records"`

	fields []string
}

// FieldOrder implements gqlquery.FieldOrderer.
func (r *QueryTableResult) FieldOrder() []string { return r.fields }

// SearchTableResult is the searchTable response.
type SearchTableResult struct {
	Table            string           `json:"table"`
	SearchTerm       string           `json:"searchTerm"`
	SearchedField    string           `json:"searchedField"`
	UnsearchedFields []string         `json:"unsearchedFields,omitempty"`
	Note             string           `json:"note,omitempty"`
	Count            int              `json:"count"`
	Records          []map[string]any `json:"records"`

	fields []string
}

// FieldOrder implements gqlquery.FieldOrderer.
func (r *SearchTableResult) FieldOrder() []string { return r.fields }

// FieldOptionsResult is the getFieldOptions response.
type FieldOptionsResult struct {
	Table string `json:"table"`
	Field string `json:"field"`
	gqlquery.FieldOptions
	Message string `json:"message,omitempty"`
}
