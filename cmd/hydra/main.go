// Package main is the hydra CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/hydra/internal/cli"
	"github.com/hyperjump/hydra/internal/config"
	"github.com/hyperjump/hydra/internal/search"
	"github.com/hyperjump/hydra/internal/server"
	"github.com/hyperjump/hydra/internal/watcher"
	"github.com/hyperjump/hydra/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/hydra/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "import":
		runImport()
	case "delete":
		runDelete()
	case "reindex":
		runReindex()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("hydra %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// openClient loads the config and opens the store and indices directly. Fails while a
// server holds the index locks; commands that can talk to the server prefer that.
func openClient(configPath string, debug bool) (*search.Client, *config.Config, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	opts := []search.ClientOption{}
	if cfg.Debug || debug {
		opts = append(opts, search.WithClientLogger(logger))
	}
	client, err := search.NewClient(cfg, opts...)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	return client, cfg, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (searches, hydration, file imports, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Int("collections", len(cfg.Collections)),
	)

	client, err := search.NewClient(cfg, search.WithClientLogger(logger))
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer client.Close()

	handler := client.Indexer.NewFileHandler(cfg.Import.DefaultCollection, cfg.Import.Extensions, logger)
	watchOpts := []watcher.WatcherOption{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		cfg.Import.Directories,
		cfg.Import.Extensions,
		cfg.Import.RecursiveOrDefault(),
		handler,
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	go watchSvc.SyncExistingFiles()

	srv := server.NewServer(client, cfg, logger, watchSvc, resolvedConfigPath)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	collection := fs.String("collection", "", "target collection (default: parent directory name, else import.default_collection)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: hydra import [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	client, cfg, logger := openClient(*configPath, false)
	defer logger.Sync()
	defer client.Close()

	fallback := cfg.Import.DefaultCollection
	if *collection != "" {
		fallback = *collection
	}
	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := client.Indexer.ImportDirectory(ctx, path, fallback, cfg.Import.Extensions)
		if err != nil {
			fmt.Printf("Import failed after %d record(s): %v\n", n, err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d record(s) from %s\n", n, path)
		return
	}
	target := *collection
	if target == "" {
		if target, err = client.Indexer.ResolveCollection(path, fallback); err != nil {
			fmt.Printf("Import failed: %v\n", err)
			os.Exit(1)
		}
	}
	// Single file: no extension filter
	n, err := client.Indexer.ImportFile(ctx, path, target, nil)
	if err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d record(s) into %s\n", n, target)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	collection := fs.String("collection", "", "collection of the record (default: import.default_collection)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: hydra delete [flags] <record-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	client, cfg, logger := openClient(*configPath, false)
	defer logger.Sync()
	defer client.Close()

	target := *collection
	if target == "" {
		target = cfg.Import.DefaultCollection
	}
	if err := client.Indexer.DeleteRecord(context.Background(), target, id); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Record deleted: %s/%s\n", target, id)
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = rebuild directly when server is not running)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: hydra reindex [flags] <collection>")
		os.Exit(1)
	}
	collection := fs.Arg(0)

	if *serverURL != "" {
		var out struct {
			Records int `json:"records"`
		}
		target := *serverURL + "/api/v1/collections/" + url.PathEscape(collection) + "/reindex"
		if err := postJSON(target, struct{}{}, &out); err != nil {
			fmt.Fprintf(os.Stderr, "Reindex failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Reindexed %d record(s) in %s\n", out.Records, collection)
		return
	}

	client, _, logger := openClient(*configPath, false)
	defer logger.Sync()
	defer client.Close()
	n, err := client.Indexer.Reindex(context.Background(), collection, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reindex failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reindexed %d record(s) in %s\n", n, collection)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status cli.StatusOutput
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/status", &status); err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		client, cfg, logger := openClient(*configPath, false)
		defer logger.Sync()
		defer client.Close()
		st, err := client.Status(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = cli.StatusOutput{Status: st, ImportDirectories: cfg.Import.Directories}
	}
	if err := cli.WriteStatus(os.Stdout, &status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: hydra watch <add|remove|list> [path]")
		fmt.Println("  hydra watch add <path>     Add an import directory")
		fmt.Println("  hydra watch remove <path>  Stop watching an import directory")
		fmt.Println("  hydra watch list           List import directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	noSync := fs.Bool("no-sync", false, "do not import files already in the directory (add only)")
	_ = fs.Parse(os.Args[3:])
	endpoint := *serverURL + "/api/v1/import/directories"

	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: hydra watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body := map[string]interface{}{"path": path, "sync": !*noSync}
		if err := postJSON(endpoint, body, nil); err != nil {
			fmt.Printf("Add failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: hydra watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := deleteJSON(endpoint + "?path=" + url.QueryEscape(path)); err != nil {
			fmt.Printf("Remove failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := getJSON(endpoint, &out); err != nil {
			fmt.Printf("List failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`hydra - search hit hydration service

Usage:
  hydra server [flags]                 Start the HTTP server and import watcher
  hydra search [flags] <query>         Search a collection
  hydra import [flags] <path>          Import records from a file or directory
  hydra delete [flags] <id>            Delete a record
  hydra reindex [flags] <collection>   Rebuild a collection's index from the store
  hydra status [flags]                 Show store/index status
  hydra watch <add|remove|list>        Manage import directories
  hydra version                        Show version
  hydra help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/hydra/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string      Config file path (direct mode; also supplies the default collection)
  --server string      Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --collection string  Collection to search (default: import.default_collection)
  --kind string        match, match_phrase, query_string, fuzzy or match_all (default: match)
  --field string       Restrict the query to one field
  --limit int          Hits per page (default from config)
  --offset int         Hits to skip
  --hydrate            Resolve hits to stored records (default: true)
  --enrich             Attach each hit's search envelope as _esResult
  --highlight string   Comma-separated fields to highlight
  --select string      Comma-separated record fields to return
  --output string      text or json (default: text)

Import / Delete Flags:
  --config string      Config file path
  --collection string  Target collection

Reindex / Status Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --output string    Output format for status: text or json

Watch Flags:
  --server string    Server URL (default: http://localhost:8080)
  --no-sync          Do not import existing files when adding a directory

Examples:
  hydra server
  hydra search --kind match_phrase --field quote Death
  hydra search --enrich --highlight quote --output json death
  hydra import ./imports/esResultText/quotes.json
  hydra delete --collection esResultText 4
  hydra reindex esResultText
  hydra watch add ./imports`)
}
