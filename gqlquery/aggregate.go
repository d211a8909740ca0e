package gqlquery

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Aggregate builds the frequency distribution of field over records.
//
// Absent and null values count toward NullCount. An array value counts each
// of its elements and marks the field as multi-select, so the sum of counts
// may exceed the sample size. Any other value counts once.
//
// Values are ordered by count descending; ties keep first-seen order so the
// output is deterministic regardless of map iteration. Zero records yield an
// empty (non-nil) Values slice, not an error.
func Aggregate(records []map[string]any, field string) FieldOptions {
	counts := make(map[string]int)
	var order []string
	opts := FieldOptions{SampleSize: len(records)}

	add := func(v any) {
		key := Stringify(v)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	for _, rec := range records {
		v, ok := rec[field]
		if !ok || v == nil {
			opts.NullCount++
			continue
		}
		if list, isList := v.([]any); isList {
			opts.IsMultiSelect = true
			for _, item := range list {
				add(item)
			}
			continue
		}
		add(v)
	}

	values := make([]ValueCount, len(order))
	for i, key := range order {
		values[i] = ValueCount{Value: key, Count: counts[key]}
	}
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Count > values[j].Count
	})

	opts.Values = values
	opts.TotalUnique = len(values)
	return opts
}

// Stringify renders a decoded JSON value as a frequency-table key.
// Strings are kept verbatim, numbers use their shortest decimal form,
// booleans are "true"/"false" and containers are JSON-encoded.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case map[string]any, []any:
		raw, err := json.Marshal(val)
		if err == nil {
			return string(raw)
		}
	}
	return fmt.Sprintf("%v", v)
}
