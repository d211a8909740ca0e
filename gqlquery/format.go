package gqlquery

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// OutputMode selects how operation results are serialized for the client.
type OutputMode int

const (
	// JSONOutput marshals results as indented JSON. This is the default.
	JSONOutput OutputMode = iota
	// CompactOutput renders record lists as CSV-style tables and objects as
	// key:value lines, which costs an LLM far fewer tokens than JSON.
	CompactOutput
)

// ParseOutputMode converts a configuration string to an OutputMode.
// "json" and "" map to JSONOutput; "compact" and "llm" map to CompactOutput.
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return JSONOutput, nil
	case "compact", "llm":
		return CompactOutput, nil
	default:
		return 0, invalidArgument(`unknown output format "`+s+`": use "json" or "compact"`,
			map[string]any{"value": s})
	}
}

// FieldOrderer is implemented by results that know the column order of the
// records they carry.
type FieldOrderer interface {
	FieldOrder() []string
}

// Render serializes result in the given mode. When fieldOrder is empty and
// result implements FieldOrderer, its order is used for compact tables.
func Render(result any, fieldOrder []string, mode OutputMode) ([]byte, error) {
	if mode == CompactOutput {
		if fo, ok := result.(FieldOrderer); ok && len(fieldOrder) == 0 {
			fieldOrder = fo.FieldOrder()
		}
		return FormatCompact(result, fieldOrder)
	}
	return json.MarshalIndent(result, "", "  ")
}

// FormatCompact formats a result in compact tabular form.
//
// Record lists ([]map[string]any, or []any holding only maps) become a header
// row followed by one comma-separated row per record. FieldOptions become a
// summary line plus a value,count table. Any other map becomes key:value
// lines, with list-valued entries rendered as nested tables. Structs are
// converted through their JSON form first. Everything else falls back to JSON.
func FormatCompact(result any, fieldOrder []string) ([]byte, error) {
	var b strings.Builder
	if err := writeCompact(&b, result, fieldOrder); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func writeCompact(b *strings.Builder, result any, fieldOrder []string) error {
	switch v := result.(type) {
	case []map[string]any:
		writeTable(b, v, fieldOrder)
	case []any:
		rows, ok := asRecords(v)
		if !ok {
			return writeJSON(b, v)
		}
		writeTable(b, rows, fieldOrder)
	case FieldOptions:
		writeOptions(b, v)
	case *FieldOptions:
		writeOptions(b, *v)
	case map[string]any:
		keys := sortedKeys(v)
		for _, k := range keys {
			switch nested := v[k].(type) {
			case []map[string]any, []any:
				b.WriteString(k)
				b.WriteString(":\n")
				if err := writeCompact(b, nested, fieldOrder); err != nil {
					return err
				}
			default:
				b.WriteString(k)
				b.WriteByte(':')
				b.WriteString(escapeKV(nested))
				b.WriteByte('\n')
			}
		}
	case json.RawMessage, []byte, string, nil:
		return writeJSON(b, result)
	default:
		generic, err := normalize(result)
		if err != nil {
			return err
		}
		switch generic.(type) {
		case map[string]any, []any:
			return writeCompact(b, generic, fieldOrder)
		}
		return writeJSON(b, generic)
	}
	return nil
}

func writeTable(b *strings.Builder, rows []map[string]any, fieldOrder []string) {
	if len(fieldOrder) == 0 && len(rows) > 0 {
		fieldOrder = sortedKeys(rows[0])
	}
	b.WriteString(strings.Join(fieldOrder, ","))
	b.WriteByte('\n')
	for _, row := range rows {
		for i, f := range fieldOrder {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeCSV(row[f]))
		}
		b.WriteByte('\n')
	}
}

func writeOptions(b *strings.Builder, o FieldOptions) {
	b.WriteString("sampleSize:" + strconv.Itoa(o.SampleSize))
	b.WriteString(" totalUnique:" + strconv.Itoa(o.TotalUnique))
	b.WriteString(" nullCount:" + strconv.Itoa(o.NullCount))
	b.WriteString(" isMultiSelect:" + strconv.FormatBool(o.IsMultiSelect))
	b.WriteString("\nvalue,count\n")
	for _, vc := range o.Values {
		b.WriteString(escapeCSV(vc.Value))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(vc.Count))
		b.WriteByte('\n')
	}
}

func writeJSON(b *strings.Builder, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.Write(raw)
	b.WriteByte('\n')
	return nil
}

func asRecords(items []any) ([]map[string]any, bool) {
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		rows = append(rows, m)
	}
	return rows, true
}

// escapeCSV renders a cell. Nil becomes empty; cells containing commas,
// quotes or newlines are quoted with internal quotes doubled.
func escapeCSV(val any) string {
	if val == nil {
		return ""
	}
	s := Stringify(val)
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// escapeKV renders the value half of a key:value line on one line.
func escapeKV(val any) string {
	if val == nil {
		return ""
	}
	s := Stringify(val)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return strings.ReplaceAll(s, "\r", `\r`)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
