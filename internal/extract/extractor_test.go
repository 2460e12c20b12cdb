package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_jsonArray(t *testing.T) {
	e := NewExtractor()
	rows, err := e.ExtractBytes([]byte(`[{"title":"Mort","year":1987},{"title":"Equal Rites"}]`), ".json")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0]["title"] != "Mort" || rows[0]["year"] != float64(1987) {
		t.Errorf("row 0 = %v", rows[0])
	}
}

func TestExtractBytes_jsonWrapped(t *testing.T) {
	e := NewExtractor()
	rows, err := e.ExtractBytes([]byte(`{"records":[{"title":"Mort"}]}`), ".JSON")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(rows) != 1 || rows[0]["title"] != "Mort" {
		t.Errorf("got %v", rows)
	}
	if _, err := e.ExtractBytes([]byte(`{"title":"Mort"}`), ".json"); err == nil {
		t.Error("a bare object is not a record list")
	}
	if _, err := e.ExtractBytes([]byte(`[1,2`), ".json"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestExtractBytes_yaml(t *testing.T) {
	e := NewExtractor()
	content := []byte(`
- title: The Light Fantastic
  tags: [rincewind, twoflower]
- title: Mort
  meta:
    year: 1987
`)
	rows, err := e.ExtractBytes(content, ".yml")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0]["title"] != "The Light Fantastic" {
		t.Errorf("row 0 = %v", rows[0])
	}
	meta, ok := rows[1]["meta"].(map[string]interface{})
	if !ok || meta["year"] != 1987 {
		t.Errorf("nested map not decoded: %#v", rows[1]["meta"])
	}

	wrapped, err := e.ExtractBytes([]byte("records:\n  - title: Mort\n"), ".yaml")
	if err != nil || len(wrapped) != 1 {
		t.Errorf("wrapped yaml: %v, %v", wrapped, err)
	}
}

func TestExtractBytes_nestedMapsMatchAcrossFormats(t *testing.T) {
	e := NewExtractor()
	fromJSON, err := e.ExtractBytes([]byte(`[{"meta": {"series": {"name": "Rincewind"}}}]`), ".json")
	if err != nil {
		t.Fatal(err)
	}
	fromYAML, err := e.ExtractBytes([]byte("- meta:\n    series:\n      name: Rincewind\n"), ".yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Errorf("json %#v != yaml %#v", fromJSON, fromYAML)
	}
	meta, ok := fromYAML[0]["meta"].(map[string]interface{})
	if !ok {
		t.Fatalf("meta = %T", fromYAML[0]["meta"])
	}
	if _, ok := meta["series"].(map[string]interface{}); !ok {
		t.Errorf("series = %T", meta["series"])
	}
}

func TestExtractBytes_invalidUTF8(t *testing.T) {
	e := NewExtractor()
	rows, err := e.ExtractBytes([]byte("[{\"title\":\"hello\x80world\"}]"), ".json")
	if err != nil {
		// encoding/json rejects some invalid input outright; either outcome keeps bad bytes out.
		return
	}
	if rows[0]["title"] != "hello\uFFFDworld" {
		t.Errorf("got %q", rows[0]["title"])
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "title")
	f.SetCellValue("Sheet1", "B1", "quote")
	f.SetCellValue("Sheet1", "A2", "Mort")
	f.SetCellValue("Sheet1", "B2", "You don't see people at their best in this job, said Death.")
	f.SetCellValue("Sheet1", "A4", "Equal Rites")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	e := NewExtractor()
	rows, err := e.ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("empty rows should be skipped, got %d rows: %v", len(rows), rows)
	}
	if rows[0]["title"] != "Mort" || rows[0]["quote"] == nil {
		t.Errorf("row 0 = %v", rows[0])
	}
	if _, ok := rows[1]["quote"]; ok {
		t.Errorf("empty cells should be absent: %v", rows[1])
	}
}

func TestExtract_excelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "title")
	f.SetCellValue("Sheet1", "A2", "Searchable text")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	rows, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rows) != 1 || rows[0]["title"] != "Searchable text" {
		t.Errorf("got %v", rows)
	}
}

func TestExtract_jsonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte(`[{"title":"Mort"}]`), 0600); err != nil {
		t.Fatal(err)
	}
	rows, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %v", rows)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract("/nonexistent/path/records.json"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestExtractBytes_unsupportedExtension(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("raw content"), ".pdf"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestSupported(t *testing.T) {
	for ext, want := range map[string]bool{".json": true, ".YAML": true, ".yml": true, ".xlsx": true, ".txt": false, "": false} {
		if got := Supported(ext); got != want {
			t.Errorf("Supported(%q) = %v, want %v", ext, got, want)
		}
	}
}
