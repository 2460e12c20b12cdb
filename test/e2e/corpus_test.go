package e2e

import (
	"testing"
)

func TestBuildCorpus_RecordsHaveUniqueIDs(t *testing.T) {
	c := BuildCorpus()
	if c.TotalRecords != len(novels) || len(c.Records) != len(novels) {
		t.Errorf("expected %d records, got %d", len(novels), c.TotalRecords)
	}
	seen := map[string]bool{}
	for _, r := range c.Records {
		if seen[r.ID] {
			t.Errorf("duplicate id %q", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestBuildCorpus_SignaturesAreUnique(t *testing.T) {
	c := BuildCorpus()
	if c.TotalQueries == 0 {
		t.Fatal("expected at least one query test case")
	}
	byID := make(map[string]E2ERecord)
	for _, r := range c.Records {
		byID[r.ID] = r
	}
	for _, tc := range c.TestCases {
		if tc.Query == "" || len(tc.ExpectedIDs) == 0 {
			t.Errorf("incomplete test case %+v", tc)
			continue
		}
		for _, id := range tc.ExpectedIDs {
			if !containsWord(byID[id], tc.Query) {
				t.Errorf("record %q does not contain %q", id, tc.Query)
			}
		}
		for _, r := range c.Records {
			if r.ID != tc.ExpectedIDs[0] && containsWord(r, tc.Query) {
				t.Errorf("signature %q also appears in %q", tc.Query, r.ID)
			}
		}
	}
}

func TestCorpus_Rows(t *testing.T) {
	c := BuildCorpus()
	rows := c.Rows()
	if len(rows) != len(c.Records) {
		t.Fatalf("expected %d rows, got %d", len(c.Records), len(rows))
	}
	for i, row := range rows {
		if row["id"] != c.Records[i].ID || row["title"] != c.Records[i].Title || row["summary"] != c.Records[i].Summary {
			t.Errorf("row %d = %v", i, row)
		}
	}
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		rec     E2ERecord
		word    string
		contain bool
	}{
		{E2ERecord{Title: "Mort", Summary: "Death takes on an apprentice"}, "apprentice", true},
		{E2ERecord{Title: "Mort", Summary: "Death takes on an apprentice"}, "Rincewind", false},
		{E2ERecord{Title: "Small Gods", Summary: "Om"}, "Small Gods", true},
	}
	for i, tt := range tests {
		if got := containsWord(tt.rec, tt.word); got != tt.contain {
			t.Errorf("test %d: containsWord(%q) = %v, want %v", i, tt.word, got, tt.contain)
		}
	}
}
