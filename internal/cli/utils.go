// Package cli provides output helpers for the hydra command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/hydra/internal/models"
	"github.com/hyperjump/hydra/internal/search"
	"github.com/hyperjump/hydra/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat parses the --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

const fieldWidth = 120

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	writeSearchResultsText(w, response)
	return nil
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d hits in %dms for %s (showing %d)\n\n",
		response.TotalHits, response.QueryTime, response.Query, len(response.Hits))
	for i, hit := range response.Hits {
		writeOneHit(w, i+1, hit)
	}
	if len(response.Missing) > 0 {
		fmt.Fprintf(w, "%d hit(s) skipped, records no longer stored: %s\n",
			len(response.Missing), strings.Join(response.Missing, ", "))
	}
}

func writeOneHit(w io.Writer, rank int, hit *models.Hit) {
	fmt.Fprintf(w, "-----------------------------------------------------------\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f | ID: %s\n", rank, hit.Score, hit.ID)
	fields := hit.Source
	if hit.Record != nil && hit.Record.Record != nil {
		fields = hit.Record.Record.Fields
	}
	writeFields(w, fields)
	if hit.Record != nil && hit.Record.ESResult != nil {
		env := hit.Record.ESResult
		fmt.Fprintf(w, "  [%s/%s]\n", env.Index, env.Type)
		for _, name := range sortedKeys(env.Highlight) {
			for _, frag := range env.Highlight[name] {
				fmt.Fprintf(w, "  ~ %s: %s\n", name, utils.Truncate(frag, fieldWidth))
			}
		}
	}
	fmt.Fprintln(w)
}

func writeFields(w io.Writer, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, utils.Truncate(fmt.Sprint(fields[k]), fieldWidth))
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StatusOutput is what the status command prints.
type StatusOutput struct {
	*search.Status
	ImportDirectories []string `json:"import_directories,omitempty"`
}

// WriteStatus writes the status to w in the given format.
func WriteStatus(w io.Writer, status *StatusOutput, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "Records:         %d\n", status.Records)
	fmt.Fprintf(w, "Database:        %s\n", status.DatabasePath)
	fmt.Fprintf(w, "Indices:         %s\n", status.IndexDir)
	fmt.Fprintf(w, "Missing policy:  %s\n", status.MissingPolicy)
	if status.DiskUsageBytes > 0 {
		fmt.Fprintf(w, "Disk usage:      %s\n", FormatBytes(status.DiskUsageBytes))
	}
	fmt.Fprintln(w, "\nCollections:")
	for _, c := range status.Collections {
		drift := ""
		if int64(c.Documents) != c.Records {
			drift = "  (out of sync, run reindex)"
		}
		size := ""
		if c.IndexBytes > 0 {
			size = " size=" + FormatBytes(c.IndexBytes)
		}
		fmt.Fprintf(w, "  %-20s index=%s type=%s records=%d documents=%d%s%s\n",
			c.Name, c.Index, c.Type, c.Records, c.Documents, size, drift)
	}
	if len(status.ImportDirectories) > 0 {
		fmt.Fprintln(w, "\nImport directories:")
		for _, d := range status.ImportDirectories {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
