package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hyperjump/hydra/internal/cli"
	"github.com/hyperjump/hydra/internal/models"
)

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: hydra search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Hits come back in relevance order. With --hydrate (the default) each hit carries the
stored record; --enrich also attaches the search envelope (index, type, score, source,
highlights). --hydrate=false returns the engine's source snapshots without reading the store.
A plain match query that finds nothing is retried once as a fuzzy query.

Examples:
  hydra search death
  hydra search --kind match_phrase --field quote "said Death"
  hydra search --enrich --highlight quote,title death
  hydra search --hydrate=false --output json mort
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchConfigPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func searchConfigPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// searchDefaultsFromConfig loads config at path and returns the default collection and
// page size. On load failure it returns "" and 0, leaving the choice to the server.
func searchDefaultsFromConfig(path string) (collection string, limit int) {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return "", 0
	}
	return cfg.Import.DefaultCollection, cfg.Search.DefaultLimit
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// searchFlags are the parsed search options before they become a SearchQuery.
type searchFlags struct {
	collection string
	kind       string
	field      string
	text       string
	limit      int
	offset     int
	hydrate    bool
	enrich     bool
	highlight  string
	selectList string
}

func (f searchFlags) query() *models.SearchQuery {
	q := &models.SearchQuery{
		Collection:           f.collection,
		Query:                models.Query{Kind: models.QueryKind(f.kind), Field: f.field, Text: f.text},
		Limit:                f.limit,
		Offset:               f.offset,
		Hydrate:              f.hydrate,
		HydrateWithESResults: f.enrich && f.hydrate,
	}
	if fields := splitList(f.highlight); len(fields) > 0 {
		q.Highlight = &models.HighlightOptions{Fields: make(map[string]models.HighlightField, len(fields))}
		for _, name := range fields {
			q.Highlight.Fields[name] = models.HighlightField{}
		}
	}
	if sel := splitList(f.selectList); len(sel) > 0 && f.hydrate {
		q.HydrateOptions = &models.FetchOptions{Select: sel}
	}
	return q
}

// shouldRetryFuzzy reports whether a search that found nothing is worth retrying as a
// fuzzy query: only plain match queries are retried.
func shouldRetryFuzzy(q *models.SearchQuery, resp *models.SearchResponse) bool {
	kind := q.Query.Kind
	return resp.TotalHits == 0 && (kind == "" || kind == models.QueryMatch)
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])
	configPath := searchConfigPathFromArgs(searchArgs, defaultConfigPath)
	defaultCollection, defaultLimit := searchDefaultsFromConfig(configPath)

	var f searchFlags
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage when server is not running)")
	fs.StringVar(&f.collection, "collection", defaultCollection, "collection to search")
	fs.StringVar(&f.kind, "kind", string(models.QueryMatch), "query kind: match, match_phrase, query_string, fuzzy, match_all")
	fs.StringVar(&f.field, "field", "", "restrict the query to one field")
	fs.IntVar(&f.limit, "limit", defaultLimit, "number of hits")
	fs.IntVar(&f.offset, "offset", 0, "hits to skip")
	fs.BoolVar(&f.hydrate, "hydrate", true, "resolve hits to stored records")
	fs.BoolVar(&f.enrich, "enrich", false, "attach each hit's search envelope to its record")
	fs.StringVar(&f.highlight, "highlight", "", "comma-separated fields to highlight")
	fs.StringVar(&f.selectList, "select", "", "comma-separated record fields to return")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	f.text = buildSearchQuery(fs.Args())
	if f.text == "" && f.kind != string(models.QueryMatchAll) {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var run func(*models.SearchQuery) (*models.SearchResponse, error)
	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids bleve/SQLite lock conflicts).
		run = func(q *models.SearchQuery) (*models.SearchResponse, error) {
			return searchViaHTTP(*serverURL, q)
		}
	} else {
		client, _, logger := openClient(*configPathFlag, false)
		defer logger.Sync()
		defer client.Close()
		run = func(q *models.SearchQuery) (*models.SearchResponse, error) {
			return client.Search(context.Background(), q)
		}
	}

	query := f.query()
	response, err := run(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if shouldRetryFuzzy(query, response) {
		query = f.query()
		query.Query.Kind = models.QueryFuzzy
		if fuzzy, fuzzyErr := run(query); fuzzyErr == nil && fuzzy.TotalHits > 0 {
			fmt.Fprintln(os.Stderr, "No exact matches; showing fuzzy matches.")
			response = fuzzy
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	if query.Collection == "" {
		return nil, fmt.Errorf("no collection given (use --collection or set import.default_collection)")
	}
	var response models.SearchResponse
	target := serverURL + "/api/v1/collections/" + url.PathEscape(query.Collection) + "/search"
	if err := postJSON(target, query, &response); err != nil {
		return nil, err
	}
	return &response, nil
}
