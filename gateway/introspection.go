package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/xFoundry/baseql-mcp/gqlquery"
	"github.com/xFoundry/baseql-mcp/upstream"
)

const listTablesQuery = `query ListTables {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types { name kind description }
  }
}`

const tableSchemaQuery = `query TableSchema($name: String!) {
  __type(name: $name) {
    name
    kind
    description
    fields {
      name
      description
      type { name kind ofType { name kind ofType { name kind ofType { name kind } } } }
    }
  }
}`

// schemaQuery is the standard full introspection query.
const schemaQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types { ...FullType }
    directives {
      name
      description
      locations
      args { ...InputValue }
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    description
    args { ...InputValue }
    type { ...TypeRef }
    isDeprecated
    deprecationReason
  }
  inputFields { ...InputValue }
  interfaces { ...TypeRef }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes { ...TypeRef }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType { kind name ofType { kind name ofType { kind name } } }
        }
      }
    }
  }
}`

// SchemaResourceURI identifies the full-schema resource.
const SchemaResourceURI = "baseql://schema"

type namedRef struct {
	Name string `json:"name"`
}

type schemaTypes struct {
	Schema struct {
		QueryType        *namedRef `json:"queryType"`
		MutationType     *namedRef `json:"mutationType"`
		SubscriptionType *namedRef `json:"subscriptionType"`
		Types            []struct {
			Name        string `json:"name"`
			Kind        string `json:"kind"`
			Description string `json:"description"`
		} `json:"types"`
	} `json:"__schema"`
}

// ListTables lists the object types that represent tables: OBJECT kinds that
// are neither introspection types nor root operation types.
func (s *Service) ListTables(ctx context.Context) (*ListTablesResult, error) {
	data, err := s.execute(ctx, upstream.Request{Query: listTablesQuery, OperationName: "ListTables"})
	if err != nil {
		return nil, err
	}

	var payload schemaTypes
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, unexpectedShape("__schema", err)
	}

	roots := make(map[string]bool, 3)
	for _, ref := range []*namedRef{payload.Schema.QueryType, payload.Schema.MutationType, payload.Schema.SubscriptionType} {
		if ref != nil && ref.Name != "" {
			roots[ref.Name] = true
		}
	}

	tables := []TableInfo{}
	for _, t := range payload.Schema.Types {
		if t.Kind != "OBJECT" || strings.HasPrefix(t.Name, "__") || roots[t.Name] {
			continue
		}
		tables = append(tables, TableInfo{Name: t.Name, Description: t.Description})
	}
	return &ListTablesResult{Tables: tables, Count: len(tables)}, nil
}

// GetTableSchema returns the introspection payload {"__type": ...} for a
// table. An unknown table yields {"__type": null}, not an error.
func (s *Service) GetTableSchema(ctx context.Context, req TableSchemaRequest) (json.RawMessage, error) {
	if strings.TrimSpace(req.TableName) == "" {
		return nil, &gqlquery.Error{
			Code:    gqlquery.ErrInvalidArgument,
			Message: "tableName is required",
			Details: map[string]any{"param": "tableName"},
		}
	}
	return s.execute(ctx, tableSchemaRequest(req.TableName))
}

// SchemaResource returns the full introspection payload.
func (s *Service) SchemaResource(ctx context.Context) (json.RawMessage, error) {
	return s.execute(ctx, upstream.Request{Query: schemaQuery, OperationName: "IntrospectionQuery"})
}

func tableSchemaRequest(table string) upstream.Request {
	return upstream.Request{
		Query:         tableSchemaQuery,
		Variables:     map[string]any{"name": table},
		OperationName: "TableSchema",
	}
}

// introspectType fetches the type of table, or nil when it does not exist.
func (s *Service) introspectType(ctx context.Context, table string) (*gqlquery.IntrospectedType, error) {
	data, err := s.execute(ctx, tableSchemaRequest(table))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Type *gqlquery.IntrospectedType `json:"__type"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, unexpectedShape("__type", err)
	}
	return payload.Type, nil
}

func unexpectedShape(member string, err error) error {
	return &gqlquery.Error{
		Code:    gqlquery.ErrUpstream,
		Message: "unexpected response shape for " + member + ": " + err.Error(),
		Err:     err,
	}
}
