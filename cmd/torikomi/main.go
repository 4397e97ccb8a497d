// Package main is the torikomi CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/torikomi/internal/chunker"
	"github.com/hyperjump/torikomi/internal/config"
	"github.com/hyperjump/torikomi/internal/docstore"
	"github.com/hyperjump/torikomi/internal/embedding"
	"github.com/hyperjump/torikomi/internal/execlog"
	"github.com/hyperjump/torikomi/internal/extract"
	"github.com/hyperjump/torikomi/internal/keyword"
	"github.com/hyperjump/torikomi/internal/notify"
	"github.com/hyperjump/torikomi/internal/pipeline"
	"github.com/hyperjump/torikomi/internal/search"
	"github.com/hyperjump/torikomi/internal/server"
	"github.com/hyperjump/torikomi/internal/watcher"
	"github.com/hyperjump/torikomi/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/torikomi/config.yaml"

// How often the background maintenance loop purges expired execution log
// entries while the server runs.
const purgeInterval = time.Hour

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "torikomi server" from the project dir uses the
// project's config (including debug).
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
	case "run":
		runIngest()
	case "query":
		runQuery()
	case "logs":
		runLogs()
	case "stuck":
		runStuck()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("torikomi version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
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
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		runner := components.Runner
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
				defer cancel()
				result, runErr := runner.Run(ctx, pipeline.RunInput{SourceLocation: path})
				if runErr != nil {
					logger.Warn("inbox ingestion failed to start",
						zap.String("path", path), zap.Error(runErr))
					return
				}
				logger.Info("inbox ingestion finished",
					zap.String("path", path),
					zap.String("run_id", result.RunID),
					zap.String("status", string(result.Status)))
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		go watchSvc.SyncExistingFiles()
	}

	// Periodically drop execution log entries past their TTL.
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				n, purgeErr := components.Log.PurgeExpired(context.Background(), time.Now().UTC())
				if purgeErr != nil {
					logger.Warn("execution log purge failed", zap.Error(purgeErr))
				} else if n > 0 {
					logger.Info("execution log purged", zap.Int64("entries", n))
				}
			}
		}
	}()

	srv := server.NewServer(
		components.Runner,
		components.Store,
		components.Log,
		components.Searcher,
		components.Embedder,
		components.KeywordIndex,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	runID := fs.String("run-id", "", "run ID (generated when empty; reuse to resume a run)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: torikomi run [flags] <file>")
		os.Exit(1)
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Printf("Invalid path: %v\n", err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Runner.Run(context.Background(), pipeline.RunInput{
		RunID:          *runID,
		SourceLocation: path,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run failed to start: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		fmt.Printf("run_id:      %s\n", result.RunID)
		fmt.Printf("document_id: %s\n", result.DocumentID)
		fmt.Printf("status:      %s\n", result.Status)
		if result.Status == "SUCCESS" {
			fmt.Printf("chunks:      %d\n", result.ChunkCount)
			if result.Degraded {
				fmt.Println("note:        success notification could not be delivered")
			}
		} else {
			fmt.Printf("failed_step: %s\n", result.FailedStep)
			fmt.Printf("error:       %s\n", result.Message)
		}
	}
	if result.Status != "SUCCESS" {
		os.Exit(1)
	}
}

// queryArgsReorder moves any flags (and their values) that appear after the
// query text to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument.
func queryArgsReorder(args []string) []string {
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

func runQuery() {
	queryArgs := queryArgsReorder(os.Args[2:])
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", 0, "number of results (0 = config default)")
	mode := fs.String("mode", "semantic", "query mode: semantic or keyword")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(queryArgs)

	if fs.NArg() < 1 {
		fmt.Println("Usage: torikomi query [flags] <text>")
		os.Exit(1)
	}
	queryStr := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if queryStr == "" {
		fmt.Println("Usage: torikomi query [flags] <text>")
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids an SQLite/Bleve
		// lock conflict with the server process).
		raw, err := queryViaHTTP(*serverURL, queryStr, *limit, *mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		printQueryResponse(raw, *outputFormat)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	k := *limit
	if k <= 0 {
		k = cfg.Query.DefaultLimit
	}
	ctx := context.Background()
	switch *mode {
	case "semantic":
		embeddings, err := components.Embedder.EmbedBatch(ctx, []string{queryStr})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Embedding failed: %v\n", err)
			os.Exit(1)
		}
		results, err := components.Searcher.Search(ctx, embeddings[0], k)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if *outputFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(results)
			return
		}
		for i, res := range results {
			fmt.Printf("%d. [%.4f] %s#%d\n   %s\n",
				i+1, res.Score, res.Chunk.DocumentID, res.Chunk.ChunkIndex,
				utils.Truncate(res.Chunk.Text, 120))
		}
	case "keyword":
		if components.KeywordIndex == nil {
			fmt.Fprintln(os.Stderr, "Keyword search not enabled")
			os.Exit(1)
		}
		results, err := components.KeywordIndex.Search(ctx, queryStr, k)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if *outputFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(results)
			return
		}
		for i, res := range results {
			fmt.Printf("%d. [%.4f] %s\n", i+1, res.Score, res.ChunkID)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown mode %q; use semantic or keyword\n", *mode)
		os.Exit(1)
	}
}

func queryViaHTTP(serverURL, query string, limit int, mode string) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": query,
		"limit": limit,
		"mode":  mode,
	})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.RawMessage(b), nil
}

func printQueryResponse(raw json.RawMessage, format string) {
	if format == "json" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err == nil {
			fmt.Println(buf.String())
			return
		}
		fmt.Println(string(raw))
		return
	}
	var out struct {
		Mode    string `json:"mode"`
		Results []struct {
			Chunk *struct {
				DocumentID string `json:"document_id"`
				ChunkIndex int    `json:"chunk_index"`
				Text       string `json:"text"`
			} `json:"chunk"`
			ChunkID string  `json:"chunk_id"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		fmt.Println(string(raw))
		return
	}
	for i, res := range out.Results {
		if res.Chunk != nil {
			fmt.Printf("%d. [%.4f] %s#%d\n   %s\n",
				i+1, res.Score, res.Chunk.DocumentID, res.Chunk.ChunkIndex,
				utils.Truncate(res.Chunk.Text, 120))
		} else {
			fmt.Printf("%d. [%.4f] %s\n", i+1, res.Score, res.ChunkID)
		}
	}
}

func runLogs() {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: torikomi logs [flags] <run-id>")
		os.Exit(1)
	}
	runID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := execlog.NewSQLiteLog(cfg.Storage.ExecLogDBPath)
	if err != nil {
		fmt.Printf("Failed to open execution log: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	entries, err := log.QueryRun(context.Background(), runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "No entries for run %s\n", runID)
		os.Exit(1)
	}
	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(entries)
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %-8s %-7s %s\n",
			e.Timestamp.Format(time.RFC3339), e.Step, e.Status, e.Message)
	}
}

func runStuck() {
	fs := flag.NewFlagSet("stuck", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	olderThan := fs.Duration("older-than", 10*time.Minute, "report STARTED steps older than this without a terminal entry")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := execlog.NewSQLiteLog(cfg.Storage.ExecLogDBPath)
	if err != nil {
		fmt.Printf("Failed to open execution log: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	entries, err := log.Stuck(context.Background(), time.Now().UTC().Add(-*olderThan))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(entries)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No stuck runs")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  run=%s step=%s started=%s\n",
			e.Timestamp.Format(time.RFC3339), e.RunID, e.Step, e.Message)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status struct {
		Documents int64 `json:"documents"`
		Chunks    int64 `json:"chunks"`
	}
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := docstore.NewSQLiteStore(cfg.Storage.DocumentDBPath, cfg.Embedding.Dimensions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open document store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		ctx := context.Background()
		if status.Documents, err = store.CountDocuments(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		if status.Chunks, err = store.CountChunks(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
	case "text":
		fmt.Printf("documents: %d\n", status.Documents)
		fmt.Printf("chunks:    %d\n", status.Chunks)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Store        docstore.Store
	Log          *execlog.SQLiteLog
	Embedder     embedding.Embedder
	KeywordIndex keyword.Index
	Searcher     *search.Searcher
	Runner       *pipeline.Runner
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Log != nil {
		_ = c.Log.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := docstore.NewSQLiteStore(cfg.Storage.DocumentDBPath, cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document store: %w", err)
	}

	log, err := execlog.NewSQLiteLog(cfg.Storage.ExecLogDBPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize execution log: %w", err)
	}

	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Info("ONNX embedder unavailable, using deterministic mock",
			zap.String("model_path", cfg.Embedding.ModelPath), zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
	}

	var keywordIndex keyword.Index
	if cfg.Storage.KeywordPath != "" {
		keywordIndex, err = keyword.NewBleveIndex(cfg.Storage.KeywordPath)
		if err != nil {
			_ = store.Close()
			_ = log.Close()
			_ = embedder.Close()
			return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
		}
	}

	notifier := buildNotifier(cfg, logger)
	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithMaxAttempts(cfg.Pipeline.MaxAttempts),
		pipeline.WithBackoff(secondsToDuration(cfg.Pipeline.BackoffSeconds)),
		pipeline.WithStepTimeout(secondsToDuration(cfg.Pipeline.TimeoutSeconds)),
	}
	if keywordIndex != nil {
		runnerOpts = append(runnerOpts, pipeline.WithKeywordIndex(keywordIndex))
	}
	runner := pipeline.NewRunner(
		log,
		store,
		notifier,
		extract.NewExtractor(),
		embedder,
		chunker.NewChunker(cfg.Pipeline.ChunkMaxWords),
		logger,
		runnerOpts...,
	)

	return &Components{
		Store:        store,
		Log:          log,
		Embedder:     embedder,
		KeywordIndex: keywordIndex,
		Searcher:     search.NewSearcher(store),
		Runner:       runner,
	}, nil
}

// buildNotifier wires notification channels from config. Channels without a
// webhook URL stay in-process; the dead-letter channel is always in-process
// so an exhausted delivery is never lost to a second network failure.
func buildNotifier(cfg *config.Config, logger *zap.Logger) *notify.Notifier {
	webhookTimeout := 10 * time.Second
	channel := func(id, url string) notify.Channel {
		if url != "" {
			return notify.NewWebhookChannel(id, url, webhookTimeout)
		}
		return notify.NewMemoryChannel(id)
	}
	general := channel("general", cfg.Notify.GeneralWebhookURL)
	var success, errors notify.Channel
	if cfg.Notify.SuccessWebhookURL != "" {
		success = notify.NewWebhookChannel("success", cfg.Notify.SuccessWebhookURL, webhookTimeout)
	}
	if cfg.Notify.ErrorWebhookURL != "" {
		errors = notify.NewWebhookChannel("errors", cfg.Notify.ErrorWebhookURL, webhookTimeout)
	}
	deadLetter := notify.NewMemoryChannel("dead-letter")
	return notify.NewNotifier(general, success, errors, deadLetter, logger,
		notify.WithRetries(cfg.Notify.Retries),
		notify.WithBackoff(secondsToDuration(cfg.Notify.BackoffSeconds)),
	)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func printUsage() {
	fmt.Println(`torikomi - Document ingestion pipeline with traceable runs

Usage:
  torikomi server [flags]          Start the HTTP server
  torikomi run [flags] <file>      Run the ingestion pipeline on one file
  torikomi query [flags] <text>    Query stored chunks by similarity
  torikomi logs [flags] <run-id>   Show the execution log of a run
  torikomi stuck [flags]           List runs stuck in STARTED without a terminal entry
  torikomi status [flags]          Show document/chunk counts
  torikomi version                 Show version
  torikomi help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/torikomi/config.yaml)
  --debug            Enable debug logging

Run Flags:
  --config string    Config file path
  --run-id string    Run ID (generated when empty; reuse to resume a run)
  --output string    Output format: text or json (default: text)

Query Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --limit int        Number of results (default: config default_limit)
  --mode string      Query mode: semantic or keyword (default: semantic)
  --output string    Output format: text or json (default: text)

Examples:
  torikomi server
  torikomi run report.pdf
  torikomi run --run-id 7d9e... report.pdf    # resume an interrupted run
  torikomi query "quarterly revenue"
  torikomi query --mode keyword invoice
  torikomi logs 7d9e...
  torikomi stuck --older-than 30m
  torikomi status`)
}
