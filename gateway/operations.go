package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xFoundry/baseql-mcp/gqlquery"
	"github.com/xFoundry/baseql-mcp/upstream"
)

// DefaultSearchLimit is the searchTable page size when none is given.
const DefaultSearchLimit = 10

// DefaultSampleSize is the getFieldOptions sample when none is given.
const DefaultSampleSize = gqlquery.MaxPageSize

// Query forwards a raw GraphQL document and returns the data member.
func (s *Service) Query(ctx context.Context, req RawQueryRequest) (json.RawMessage, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, &gqlquery.Error{
			Code:    gqlquery.ErrInvalidArgument,
			Message: "query is required",
			Details: map[string]any{"param": "query"},
		}
	}
	return s.execute(ctx, upstream.Request{
		Query:         req.Query,
		Variables:     req.Variables,
		OperationName: req.OperationName,
	})
}

// QueryTable fetches records from one table.
func (s *Service) QueryTable(ctx context.Context, req QueryTableRequest) (*QueryTableResult, error) {
	if err := gqlquery.ValidateName("table", req.TableName); err != nil {
		return nil, err
	}
	fields, err := gqlquery.FieldSelection(req.Fields)
	if err != nil {
		return nil, err
	}
	specs, err := gqlquery.ParseSortSpecs(req.Sort)
	if err != nil {
		return nil, err
	}
	args, err := gqlquery.EncodeArgs(gqlquery.Args{
		Filter: req.Filter,
		Sort:   specs,
		Page:   gqlquery.Page{Limit: req.Limit, Offset: req.Offset},
	})
	if err != nil {
		return nil, err
	}

	records, err := s.fetch(ctx, gqlquery.QueryTableOperation, req.TableName, args, fields)
	if err != nil {
		return nil, withHints(err)
	}

	res := &QueryTableResult{
		Table:   req.TableName,
		Count:   len(records),
		Records: records,
		fields:  fields,
	}
	if req.Limit != nil {
		res.PageSize = *req.Limit
	}
	if req.Offset != nil {
		res.Page = gqlquery.PageNumber(*req.Offset, res.PageSize)
	}
	return res, nil
}

// SearchTable matches searchTerm against the first searchable text field of
// a table. BaseQL filters cannot OR across fields, so the remaining
// searchable fields are reported rather than searched.
func (s *Service) SearchTable(ctx context.Context, req SearchTableRequest) (*SearchTableResult, error) {
	if err := gqlquery.ValidateName("table", req.TableName); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SearchTerm) == "" {
		return nil, &gqlquery.Error{
			Code:    gqlquery.ErrInvalidArgument,
			Message: "searchTerm is required",
			Details: map[string]any{"param": "searchTerm"},
		}
	}
	for _, f := range req.Fields {
		if err := gqlquery.ValidateName("field", f); err != nil {
			return nil, err
		}
	}
	limit := DefaultSearchLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if _, err := gqlquery.ParsePage(&limit, nil); err != nil {
		return nil, err
	}

	typ, err := s.introspectType(ctx, req.TableName)
	if err != nil {
		return nil, withHints(err)
	}
	if typ == nil {
		return nil, &gqlquery.Error{
			Code:    gqlquery.ErrNotFound,
			Message: fmt.Sprintf("table %q not found; check the name with listTables", req.TableName),
			Details: map[string]any{"table": req.TableName},
		}
	}

	searchable := gqlquery.SearchableFields(gqlquery.DescriptorsFromType(typ), req.Fields)
	if len(searchable) == 0 {
		candidates := req.Fields
		if len(candidates) == 0 {
			candidates = gqlquery.DefaultSearchFields
		}
		return nil, &gqlquery.Error{
			Code: gqlquery.ErrInvalidArgument,
			Message: fmt.Sprintf("no searchable text field on %s among %s; pass fields naming String columns (see getTableSchema)",
				req.TableName, strings.Join(candidates, ", ")),
			Details: map[string]any{"table": req.TableName, "candidates": candidates},
		}
	}

	field := searchable[0]
	var match any = req.SearchTerm
	if s.searchMatch == SearchContains {
		match = map[string]any{"_contains": req.SearchTerm}
	}
	args, err := gqlquery.EncodeArgs(gqlquery.Args{
		Filter: map[string]any{field: match},
		Page:   gqlquery.Page{Limit: &limit},
	})
	if err != nil {
		return nil, err
	}
	selection, err := gqlquery.FieldSelection(append([]string{"id"}, searchable...))
	if err != nil {
		return nil, err
	}

	records, err := s.fetch(ctx, gqlquery.SearchTableOperation, req.TableName, args, selection)
	if err != nil {
		return nil, withHints(err)
	}

	res := &SearchTableResult{
		Table:            req.TableName,
		SearchTerm:       req.SearchTerm,
		SearchedField:    field,
		UnsearchedFields: searchable[1:],
		Count:            len(records),
		Records:          records,
		fields:           selection,
	}
	if len(res.UnsearchedFields) > 0 {
		res.Note = fmt.Sprintf("only %s was searched; search again with fields=[%q] to cover another field",
			field, res.UnsearchedFields[0])
	}
	return res, nil
}

// GetFieldOptions samples up to sampleSize records of a table and reports
// the distinct values of one field.
func (s *Service) GetFieldOptions(ctx context.Context, req FieldOptionsRequest) (*FieldOptionsResult, error) {
	if err := gqlquery.ValidateName("table", req.TableName); err != nil {
		return nil, err
	}
	if err := gqlquery.ValidateName("field", req.FieldName); err != nil {
		return nil, err
	}
	size := DefaultSampleSize
	if req.SampleSize != nil {
		size = *req.SampleSize
	}
	if size < 1 || size > gqlquery.MaxPageSize {
		return nil, &gqlquery.Error{
			Code:    gqlquery.ErrInvalidArgument,
			Message: fmt.Sprintf("sampleSize must be between 1 and %d, got %d", gqlquery.MaxPageSize, size),
			Details: map[string]any{"param": "sampleSize", "value": size},
		}
	}

	args, err := gqlquery.EncodeArgs(gqlquery.Args{Page: gqlquery.Page{Limit: &size}})
	if err != nil {
		return nil, err
	}
	records, err := s.fetch(ctx, gqlquery.FieldOptionsOperation, req.TableName, args, []string{req.FieldName})
	if err != nil {
		return nil, withHints(err)
	}

	res := &FieldOptionsResult{
		Table:        req.TableName,
		Field:        req.FieldName,
		FieldOptions: gqlquery.Aggregate(records, req.FieldName),
	}
	if len(records) == 0 {
		res.Message = "no records found in " + req.TableName
	}
	return res, nil
}

// fetch builds, checks and sends a table query and decodes its records.
func (s *Service) fetch(ctx context.Context, operation, table, args string, fields []string) ([]map[string]any, error) {
	doc := gqlquery.BuildNamedQuery(operation, table, args, fields)
	if err := gqlquery.CheckDocument(doc); err != nil {
		return nil, err
	}
	data, err := s.execute(ctx, upstream.Request{Query: doc, OperationName: operation})
	if err != nil {
		return nil, err
	}
	return decodeRecords(data, table)
}

// decodeRecords extracts the record list under table from a data member.
// A missing or null member decodes as no records.
func decodeRecords(data json.RawMessage, table string) ([]map[string]any, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, unexpectedShape(table, err)
	}
	raw, ok := root[table]
	if !ok || string(raw) == "null" {
		return []map[string]any{}, nil
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, unexpectedShape(table, err)
	}
	if records == nil {
		records = []map[string]any{}
	}
	return records, nil
}
