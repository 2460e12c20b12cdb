package extract

import (
	"strings"
	"unicode/utf8"
)

// cleanString replaces invalid UTF-8 sequences with the replacement character.
func cleanString(s string) string {
	if !utf8.ValidString(s) {
		return strings.ToValidUTF8(s, "\ufffd")
	}
	return s
}

// cleanRow sanitizes keys and string values of row, recursing into nested maps and lists.
func cleanRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[cleanString(k)] = cleanValue(v)
	}
	return out
}

func cleanValue(v interface{}) interface{} {
	switch x := v.(type) {
	case string:
		return cleanString(x)
	case map[string]interface{}:
		return map[string]interface{}(cleanRow(Row(x)))
	case Row:
		// yaml.v3 decodes nested maps into the parent's map type.
		return map[string]interface{}(cleanRow(x))
	case []interface{}:
		for i := range x {
			x[i] = cleanValue(x[i])
		}
		return x
	default:
		return v
	}
}
