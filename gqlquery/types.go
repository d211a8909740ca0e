package gqlquery

// Direction is a BaseQL sort direction. The upstream expects the lowercase
// string literally.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec is one (field, direction) pair of an ordering request.
type SortSpec struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction,omitempty"`
}

// Page holds optional limit/offset values. Nil means "not given".
type Page struct {
	Limit  *int `json:"limit,omitempty"`
	Offset *int `json:"offset,omitempty"`
}

// Args is everything that ends up in a root field's argument list.
type Args struct {
	Filter map[string]any
	Sort   []SortSpec
	Page   Page
}

// FieldDescriptor is the introspected metadata of one table field.
type FieldDescriptor struct {
	Name     string `json:"name"`
	TypeName string `json:"typeName"`
	TypeKind string `json:"typeKind"`
}

// ValueCount is one row of a frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FieldOptions is the frequency distribution of a field over a sample.
type FieldOptions struct {
	SampleSize    int          `json:"sampleSize"`
	TotalUnique   int          `json:"totalUnique"`
	NullCount     int          `json:"nullCount"`
	IsMultiSelect bool         `json:"isMultiSelect"`
	Values        []ValueCount `json:"values"`
}
