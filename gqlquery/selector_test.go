package gqlquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- ValidateName tests ---

func TestValidateName(t *testing.T) {
	valid := []string{"users", "_private", "firstName", "a1", "__typename", "Table_2"}
	for _, name := range valid {
		assert.NoError(t, ValidateName("field", name), name)
	}

	invalid := []string{"", "1users", "first name", "a-b", "a.b", "users{", "ñame", "x\n"}
	for _, name := range invalid {
		err := ValidateName("field", name)
		require.Error(t, err, name)
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, ErrInvalidArgument, e.Code)
		assert.Equal(t, "field", e.Details["kind"])
		assert.Equal(t, name, e.Details["value"])
	}
}

// --- FieldSelection tests ---

func TestFieldSelection_Default(t *testing.T) {
	got, err := FieldSelection(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "__typename"}, got)

	// Mutating the result must not leak into the default.
	got[0] = "changed"
	assert.Equal(t, "id", DefaultSelection[0])
}

func TestFieldSelection_Dedup(t *testing.T) {
	got, err := FieldSelection([]string{"name", "id", "name", "email", "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "id", "email"}, got)
}

func TestFieldSelection_RejectsInjection(t *testing.T) {
	_, err := FieldSelection([]string{"id } secret { token"})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidArgument, CodeOf(err))
}

// --- DescriptorsFromType tests ---

func TestDescriptorsFromType(t *testing.T) {
	typ := &IntrospectedType{
		Name: "people",
		Kind: "OBJECT",
		Fields: []IntrospectedField{
			{Name: "id", Type: TypeRef{Kind: "NON_NULL", OfType: &TypeRef{Name: "ID", Kind: "SCALAR"}}},
			{Name: "name", Type: TypeRef{Name: "String", Kind: "SCALAR"}},
			{Name: "email", Type: TypeRef{Kind: "NON_NULL", OfType: &TypeRef{Name: "String", Kind: "SCALAR"}}},
			{Name: "tags", Type: TypeRef{Kind: "LIST", OfType: &TypeRef{Name: "String", Kind: "SCALAR"}}},
			{Name: "company", Type: TypeRef{Name: "companies", Kind: "OBJECT"}},
		},
	}

	got := DescriptorsFromType(typ)
	assert.Equal(t, []FieldDescriptor{
		{Name: "id", TypeName: "ID", TypeKind: "SCALAR"},
		{Name: "name", TypeName: "String", TypeKind: "SCALAR"},
		{Name: "email", TypeName: "String", TypeKind: "SCALAR"},
		{Name: "tags", TypeName: "", TypeKind: "LIST"},
		{Name: "company", TypeName: "companies", TypeKind: "OBJECT"},
	}, got)

	assert.Nil(t, DescriptorsFromType(nil))
}

// --- SearchableFields tests ---

func peopleDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{Name: "id", TypeName: "ID", TypeKind: "SCALAR"},
		{Name: "fullName", TypeName: "String", TypeKind: "SCALAR"},
		{Name: "email", TypeName: "String", TypeKind: "SCALAR"},
		{Name: "age", TypeName: "Float", TypeKind: "SCALAR"},
		{Name: "title", TypeName: "", TypeKind: "LIST"},
		{Name: "bio", TypeName: "String", TypeKind: "SCALAR"},
	}
}

func TestSearchableFields_Defaults(t *testing.T) {
	got := SearchableFields(peopleDescriptors(), nil)
	assert.Equal(t, []string{"fullName", "email"}, got)
}

func TestSearchableFields_ExplicitCandidates(t *testing.T) {
	got := SearchableFields(peopleDescriptors(), []string{"bio", "age", "missing", "email", "bio"})
	assert.Equal(t, []string{"bio", "email"}, got)
}

func TestSearchableFields_NoneMatch(t *testing.T) {
	got := SearchableFields(peopleDescriptors(), []string{"age", "title", "id"})
	assert.Empty(t, got)

	got = SearchableFields([]FieldDescriptor{{Name: "count", TypeName: "Float", TypeKind: "SCALAR"}}, nil)
	assert.Empty(t, got)
}
