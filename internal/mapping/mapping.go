// Package mapping declares the searchable fields of each collection and builds the
// bleve index mapping from that declaration.
package mapping

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	blevemapping "github.com/blevesearch/bleve/v2/mapping"
)

// Field types understood by BuildIndexMapping.
const (
	FieldText     = "text"
	FieldKeyword  = "keyword"
	FieldNumber   = "number"
	FieldBoolean  = "boolean"
	FieldDateTime = "datetime"
)

// Field declares one searchable field of a collection.
type Field struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Analyzer applies to text fields: standard (default), en, simple or keyword.
	Analyzer string `yaml:"analyzer,omitempty"`
	// Store keeps the field value in the index so it shows up in hit sources. Defaults to true.
	Store *bool `yaml:"store,omitempty"`
}

// StoreOrDefault returns whether the field value is stored; defaults to true when unset.
func (f *Field) StoreOrDefault() bool {
	if f.Store != nil {
		return *f.Store
	}
	return true
}

// Collection declares a record collection and how its records are indexed.
type Collection struct {
	Name string `yaml:"name"`
	// Index overrides the index name (default: lowercased name, pluralized).
	Index string `yaml:"index,omitempty"`
	// Type overrides the document type (default: lowercased name).
	Type   string  `yaml:"type,omitempty"`
	Fields []Field `yaml:"fields"`
}

// IndexName returns the index name hits of this collection report.
func (c *Collection) IndexName() string {
	if c.Index != "" {
		return c.Index
	}
	name := strings.ToLower(c.Name)
	if strings.HasSuffix(name, "s") {
		return name
	}
	return name + "s"
}

// TypeName returns the document type hits of this collection report.
func (c *Collection) TypeName() string {
	if c.Type != "" {
		return c.Type
	}
	return strings.ToLower(c.Name)
}

// Validate checks that the declaration is complete and consistent.
func (c *Collection) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("collection name cannot be empty")
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("collection %q declares no fields", c.Name)
	}
	seen := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			return fmt.Errorf("collection %q: field name cannot be empty", c.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("collection %q: duplicate field %q", c.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		switch f.Type {
		case FieldText, FieldKeyword, FieldNumber, FieldBoolean, FieldDateTime:
		default:
			return fmt.Errorf("collection %q: field %q has unknown type %q", c.Name, f.Name, f.Type)
		}
		if f.Type == FieldText {
			if _, err := analyzerName(f.Analyzer); err != nil {
				return fmt.Errorf("collection %q: field %q: %w", c.Name, f.Name, err)
			}
		}
	}
	return nil
}

// HasField reports whether name is a declared field.
func (c *Collection) HasField(name string) bool {
	for _, f := range c.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// BuildIndexMapping returns the bleve mapping for the collection. Documents of the
// collection are indexed under TypeName, which is also the default type.
func (c *Collection) BuildIndexMapping() (*blevemapping.IndexMappingImpl, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	for _, f := range c.Fields {
		fm, err := fieldMapping(f)
		if err != nil {
			return nil, err
		}
		docMapping.AddFieldMappingsAt(f.Name, fm)
	}
	im.AddDocumentMapping(c.TypeName(), docMapping)
	im.DefaultType = c.TypeName()
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = standard.Name
	return im, nil
}

func fieldMapping(f Field) (*blevemapping.FieldMapping, error) {
	var fm *blevemapping.FieldMapping
	switch f.Type {
	case FieldText:
		fm = bleve.NewTextFieldMapping()
		name, err := analyzerName(f.Analyzer)
		if err != nil {
			return nil, err
		}
		fm.Analyzer = name
	case FieldKeyword:
		fm = bleve.NewKeywordFieldMapping()
	case FieldNumber:
		fm = bleve.NewNumericFieldMapping()
	case FieldBoolean:
		fm = bleve.NewBooleanFieldMapping()
	case FieldDateTime:
		fm = bleve.NewDateTimeFieldMapping()
	default:
		return nil, fmt.Errorf("unknown field type %q", f.Type)
	}
	fm.Store = f.StoreOrDefault()
	return fm, nil
}

// analyzerName maps a configured analyzer to its bleve registry name.
// Standard is the default: lowercase + tokenize, no stemming, so "death" matches "Death".
func analyzerName(a string) (string, error) {
	switch strings.ToLower(a) {
	case "", "standard":
		return standard.Name, nil
	case "en", "english":
		return en.AnalyzerName, nil
	case "simple":
		return simple.Name, nil
	case "keyword":
		return keyword.Name, nil
	default:
		return "", fmt.Errorf("unknown analyzer %q", a)
	}
}
