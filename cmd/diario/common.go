package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ligustah/diario/internal/config"
	"github.com/ligustah/diario/internal/edition"
	diariohttp "github.com/ligustah/diario/internal/http"
	"github.com/ligustah/diario/internal/index"
)

const userAgent = "diario/1.0"

// commonFlags are shared by every subcommand.
type commonFlags struct {
	configPath    string
	storage       string
	indexURL      string
	fileTemplate  string
	workers       int
	rps           float64
	retryAttempts int
	retryBackoff  time.Duration
	retryStatuses string
	progress      bool
	verbose       bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&c.storage, "storage", "", "Storage root: a directory or bucket URL (default \".\")")
	fs.StringVar(&c.indexURL, "index-url", "", "Index API endpoint")
	fs.StringVar(&c.fileTemplate, "file-url-template", "", "Edition PDF URL format string")
	fs.IntVar(&c.workers, "workers", 0, "Number of parallel downloads (default 10)")
	fs.Float64Var(&c.rps, "rps", 0, "Maximum requests per second (0 = unlimited)")
	fs.IntVar(&c.retryAttempts, "retry-attempts", -1, "Index retries after the first request on transient rejection, 0 disables (default 5)")
	fs.DurationVar(&c.retryBackoff, "retry-backoff", 0, "Initial index retry backoff (default 10s)")
	fs.StringVar(&c.retryStatuses, "retry-statuses", "", "Comma-separated index statuses to retry (default 400)")
	fs.BoolVar(&c.progress, "progress", false, "Show progress output")
	fs.BoolVar(&c.verbose, "v", false, "Verbose logging")
}

// load resolves the configuration: file, then environment, then flags.
func (c *commonFlags) load() (config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		cfg, err = config.LoadFromFile(c.configPath)
		if err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}

	override := config.Config{
		Storage:           c.storage,
		IndexURL:          c.indexURL,
		FileURLTemplate:   c.fileTemplate,
		Workers:           c.workers,
		RequestsPerSecond: c.rps,
		Progress:          c.progress,
		Retry: config.RetryConfig{
			Backoff: c.retryBackoff,
		},
	}
	if c.retryStatuses != "" {
		statuses, err := config.ParseStatuses(c.retryStatuses)
		if err != nil {
			return config.Config{}, fmt.Errorf("parse -retry-statuses: %w", err)
		}
		override.Retry.Statuses = statuses
	}

	cfg = cfg.Merge(override)
	// Merge ignores zero values, and 0 is a meaningful retry count.
	if c.retryAttempts >= 0 {
		cfg.Retry.Attempts = c.retryAttempts
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// logger returns a text logger on stderr tagged with a fresh run ID.
func (c *commonFlags) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", uuid.NewString())
}

func httpClient(cfg config.Config) *diariohttp.Client {
	opts := diariohttp.DefaultOptions()
	opts.MaxIdleConnsPerHost = cfg.Workers * 2
	opts.Timeout = cfg.Timeout
	opts.RetryAttempts = cfg.Retry.Attempts
	opts.RetryBackoff = cfg.Retry.Backoff
	opts.RetryMaxBackoff = cfg.Retry.MaxBackoff
	opts.RetryStatuses = cfg.Retry.Statuses
	opts.RequestsPerSecond = cfg.RequestsPerSecond
	opts.UserAgent = userAgent
	return diariohttp.NewClient(opts)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// selectorFlags select editions by publication date.
type selectorFlags struct {
	year  int
	month int
	day   int
	match string
}

func (s *selectorFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&s.year, "year", 0, "Only editions published in this year")
	fs.IntVar(&s.month, "month", 0, "Only editions published in this month (1-12)")
	fs.IntVar(&s.day, "day", 0, "Only editions published on this day of the month (1-31)")
	fs.StringVar(&s.match, "match", "all", "Combine -year/-month/-day with \"all\" (intersection) or \"any\" (union)")
}

func (s *selectorFlags) selector() (edition.Selector, error) {
	mode, ok := edition.ParseMatch(s.match)
	if !ok {
		return edition.Selector{}, fmt.Errorf("invalid -match %q: want all or any", s.match)
	}
	if s.month < 0 || s.month > 12 {
		return edition.Selector{}, fmt.Errorf("invalid -month %d", s.month)
	}
	if s.day < 0 || s.day > 31 {
		return edition.Selector{}, fmt.Errorf("invalid -day %d", s.day)
	}
	return edition.Selector{Year: s.year, Month: s.month, Day: s.day, Mode: mode}, nil
}

// fetchIndex queries the index for [start, end]. An unexpected index status
// degrades to an empty list with a warning.
func fetchIndex(ctx context.Context, client *index.Client, log *slog.Logger, start, end string) ([]edition.Edition, int) {
	r, err := index.ParseRange(start, end)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, ExitInvalidArgs
	}

	editions, err := client.FetchEditions(ctx, r)
	if err != nil {
		var se *diariohttp.StatusError
		if editions != nil && errors.As(err, &se) {
			log.Warn("index returned an unexpected status, continuing with no editions", "status", se.Code)
			return editions, ExitSuccess
		}
		fmt.Fprintf(stderr, "Error querying index: %v\n", err)
		return nil, ExitIndexError
	}
	return editions, ExitSuccess
}

// parseExit maps a flag parse error to an exit code. -h is not an error.
func parseExit(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	return ExitInvalidArgs
}

// parseNumbers parses a comma-separated list of edition numbers.
func parseNumbers(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid edition number %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
