package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// SupportedFileExtensions is the list of import formats used in file-based E2E tests.
var SupportedFileExtensions = []string{".json", ".yaml", ".yml", ".xlsx"}

// WriteImportFile encodes rows as an import file of the given extension.
// Spreadsheets get a header row with the sorted field names.
func WriteImportFile(ext string, rows []map[string]interface{}) ([]byte, error) {
	switch ext {
	case ".json":
		return json.MarshalIndent(rows, "", "  ")
	case ".yaml", ".yml":
		return yaml.Marshal(map[string]interface{}{"records": rows})
	case ".xlsx":
		return spreadsheet(rows)
	default:
		return nil, fmt.Errorf("unsupported import format %q", ext)
	}
}

func spreadsheet(rows []map[string]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	var header []string
	seen := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	sort.Strings(header)

	const sheet = "Sheet1"
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}
	for r, row := range rows {
		for col, name := range header {
			v, ok := row[name]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
