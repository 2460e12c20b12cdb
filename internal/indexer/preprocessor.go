package indexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/hyperjump/hydra/internal/mapping"
	"github.com/hyperjump/hydra/internal/models"
)

// Preprocess normalizes text for indexing (trim, collapse whitespace).
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// NormalizeFields prepares record fields for the collection. Text values are preprocessed;
// number and boolean fields given as strings (spreadsheet cells) are parsed. Undeclared
// fields are kept as they are. The input map is not modified.
func NormalizeFields(c *mapping.Collection, fields map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, f := range c.Fields {
		v, ok := out[f.Name]
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString {
			continue
		}
		switch f.Type {
		case mapping.FieldText:
			out[f.Name] = Preprocess(s)
		case mapping.FieldNumber:
			n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %q is not a number", models.ErrInvalidRecord, f.Name, s)
			}
			out[f.Name] = n
		case mapping.FieldBoolean:
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %q is not a boolean", models.ErrInvalidRecord, f.Name, s)
			}
			out[f.Name] = b
		}
	}
	return out, nil
}
