package main

import (
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/ligustah/diario/internal/downloader"
	"github.com/ligustah/diario/internal/edition"
	"github.com/ligustah/diario/internal/index"
	"github.com/ligustah/diario/internal/progress"
	"github.com/ligustah/diario/internal/sidecar"
	"github.com/ligustah/diario/internal/store"
)

// runFetch downloads editions and writes a sidecar for each one that
// succeeded. Editions come from the index for -start/-end, narrowed by the
// date selector and by -editions when given.
func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	var sel selectorFlags
	common.register(fs)
	sel.register(fs)
	start := fs.String("start", "", "First publication date, YYYY-MM-DD")
	end := fs.String("end", "", "Last publication date, YYYY-MM-DD")
	numbers := fs.String("editions", "", "Comma-separated edition numbers to download")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: diario fetch [-start YYYY-MM-DD -end YYYY-MM-DD] [-editions N,...] [options]

Download edition PDFs into <storage>/pdfs and write a JSON sidecar for each
into <storage>/out. With a date range, every edition the index lists (after
-year/-month/-day filtering) is fetched; -editions restricts the set. Without
a date range, -editions is required and sidecars carry no date.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}

	haveRange := *start != "" || *end != ""
	if haveRange && (*start == "" || *end == "") {
		fmt.Fprintln(stderr, "Error: -start and -end must be given together")
		return ExitInvalidArgs
	}
	if !haveRange && *numbers == "" {
		fmt.Fprintln(stderr, "Error: a date range or -editions is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	requested, err := parseNumbers(*numbers)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	selector, err := sel.selector()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	cfg, err := common.load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	log := common.logger()

	ctx, cancel := signalContext()
	defer cancel()

	client := httpClient(cfg)

	// Resolve the editions to download and their publication dates
	dates := make(map[int]string)
	var targets []int
	if haveRange {
		idx := index.NewClient(client, index.Options{
			URL:    cfg.IndexURL,
			Entity: cfg.Entity,
			Logger: log,
		})
		editions, code := fetchIndex(ctx, idx, log, *start, *end)
		if code != ExitSuccess {
			return code
		}
		for n, e := range edition.Lookup(editions) {
			dates[n] = e.DateString()
		}
		editions = edition.Filter(editions, selector)
		selected := edition.Lookup(editions)

		if len(requested) > 0 {
			for _, n := range requested {
				if _, ok := selected[n]; !ok {
					log.Warn("skipping edition outside the range or date filters", "edition", n)
					continue
				}
				targets = append(targets, n)
			}
		} else {
			seen := make(map[int]bool, len(editions))
			for _, e := range editions {
				if !seen[e.Number] {
					seen[e.Number] = true
					targets = append(targets, e.Number)
				}
			}
		}
	} else {
		targets = requested
	}

	if len(targets) == 0 {
		fmt.Fprintln(stderr, "[diario] No editions to download")
		return ExitSuccess
	}

	bkt, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening storage: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{
			TotalEditions:  len(targets),
			Workers:        cfg.Workers,
			Output:         stderr,
			UpdateInterval: time.Second,
		})
		reporter.Start()
	}

	d := downloader.New(client, bkt, downloader.Options{
		Workers:     cfg.Workers,
		URLTemplate: cfg.FileURLTemplate,
		Progress:    reporter,
		Logger:      log,
	})

	log.Info("downloading editions", "count", len(targets), "workers", cfg.Workers, "storage", cfg.Storage)
	results, err := d.DownloadEditions(ctx, targets, cfg.PDFDir)
	if reporter != nil {
		reporter.Stop()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	writer := sidecar.NewWriter(bkt, cfg.SidecarDir)
	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
			log.Warn("edition download failed", "edition", res.Edition, "err", res.Err)
		}

		key, err := writer.Write(ctx, res.Path, strconv.Itoa(res.Edition), dates[res.Edition])
		if err != nil {
			fmt.Fprintf(stderr, "Error writing sidecar: %v\n", err)
			return ExitStorageError
		}
		if key != "" {
			fmt.Fprintf(stdout, "%s\t%s\n", res.Path, key)
		}
	}

	if ctx.Err() != nil {
		fmt.Fprintln(stderr, "[diario] Interrupted")
		return ExitGeneralError
	}

	fmt.Fprintf(stderr, "[diario] Downloaded %d/%d editions\n", len(results)-failed, len(results))
	if failed > 0 {
		return ExitDownloadFailed
	}
	return ExitSuccess
}
