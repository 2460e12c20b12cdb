// Package e2e provides end-to-end tests: a record corpus is written to import files,
// imported, and searched with hydration.
package e2e

import (
	"fmt"
	"strings"
)

// E2ERecord is one record of the corpus.
type E2ERecord struct {
	ID      string
	Title   string
	Summary string
}

// QueryTestCase is a query and the record ids that must be among its hydrated hits.
type QueryTestCase struct {
	Query       string
	ExpectedIDs []string
	Description string
}

// Corpus is the set of records and query cases for the E2E run.
type Corpus struct {
	Records      []E2ERecord
	TestCases    []QueryTestCase
	TotalRecords int
	TotalQueries int
}

// BuildCorpus returns the corpus. Each record's summary carries a signature word no
// other record uses, and one query case targets each signature.
func BuildCorpus() *Corpus {
	recs := buildRecords()
	cases := buildQueryTestCases(recs)
	return &Corpus{
		Records:      recs,
		TestCases:    cases,
		TotalRecords: len(recs),
		TotalQueries: len(cases),
	}
}

var novels = []struct {
	title     string
	signature string
	summary   string
}{
	{"The Colour of Magic", "Twoflower", "Rincewind guides Twoflower, the first tourist, across the Disc."},
	{"The Light Fantastic", "Octavo", "A red star approaches and the Octavo spell hides in Rincewind's head."},
	{"Equal Rites", "Eskarina", "Eskarina inherits a wizard's staff and walks to Unseen University."},
	{"Mort", "apprentice", "Death takes on an apprentice who is far too kind for the job."},
	{"Sourcery", "sourcerer", "The eighth son of an eighth son is a sourcerer and wizards grab power."},
	{"Wyrd Sisters", "succession", "Three witches meddle in the succession of Lancre."},
	{"Pyramids", "Djelibeybi", "A trained assassin becomes king of Djelibeybi."},
	{"Guards! Guards!", "dragon", "The Night Watch faces a summoned dragon in Ankh-Morpork."},
	{"Eric", "demonologist", "A teenage demonologist summons Rincewind by mistake."},
	{"Moving Pictures", "Holy Wood", "Alchemists invent the clicks and Holy Wood calls everyone."},
	{"Reaper Man", "Windle", "Death is retired and Windle Poons refuses to stay dead."},
	{"Witches Abroad", "Genua", "Granny Weatherwax travels to Genua to stop a fairy godmother."},
	{"Small Gods", "Omnia", "The god Om is a tortoise and only Brutha of Omnia believes."},
	{"Lords and Ladies", "elves", "The elves return to Lancre through the standing stones."},
	{"Men at Arms", "gonne", "Someone in Ankh-Morpork has stolen the gonne."},
	{"Soul Music", "Susan", "Music with rocks in, and Susan stands in for her grandfather."},
	{"Interesting Times", "Agatean", "Rincewind is sent to the Agatean Empire as the Great Wizard."},
	{"Maskerade", "Opera", "A ghost haunts the Ankh-Morpork Opera house."},
	{"Feet of Clay", "golem", "A golem is accused of murder and the Patrician is poisoned."},
	{"Hogfather", "Hogswatch", "The Hogfather goes missing on Hogswatch night."},
	{"Jingo", "Leshp", "The island of Leshp rises and two nations squabble over it."},
	{"The Last Continent", "XXXX", "Rincewind is stranded on the continent of XXXX."},
	{"Carpe Jugulum", "vampires", "Modern vampires are invited into Lancre."},
	{"The Fifth Elephant", "Uberwald", "Vimes is sent as ambassador to Uberwald."},
}

func buildRecords() []E2ERecord {
	out := make([]E2ERecord, len(novels))
	for i, n := range novels {
		out[i] = E2ERecord{
			ID:      fmt.Sprintf("novel-%02d", i+1),
			Title:   n.title,
			Summary: n.summary,
		}
	}
	return out
}

func buildQueryTestCases(recs []E2ERecord) []QueryTestCase {
	var cases []QueryTestCase
	for i, n := range novels {
		if i >= len(recs) {
			break
		}
		cases = append(cases, QueryTestCase{
			Query:       n.signature,
			ExpectedIDs: []string{recs[i].ID},
			Description: fmt.Sprintf("query %q should hydrate %s", n.signature, recs[i].ID),
		})
	}
	return cases
}

func containsWord(r E2ERecord, word string) bool {
	return strings.Contains(r.Title, word) || strings.Contains(r.Summary, word)
}

// Rows converts the records to import rows keyed by field name.
func (c *Corpus) Rows() []map[string]interface{} {
	out := make([]map[string]interface{}, len(c.Records))
	for i, r := range c.Records {
		out[i] = map[string]interface{}{
			"id":      r.ID,
			"title":   r.Title,
			"summary": r.Summary,
		}
	}
	return out
}
