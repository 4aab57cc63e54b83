package main

import (
	"flag"
	"fmt"

	"github.com/ligustah/diario/internal/edition"
	"github.com/ligustah/diario/internal/index"
)

// runList prints the editions the index lists for a date range.
func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	var sel selectorFlags
	common.register(fs)
	sel.register(fs)
	start := fs.String("start", "", "First publication date, YYYY-MM-DD (required)")
	end := fs.String("end", "", "Last publication date, YYYY-MM-DD (required)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: diario list -start YYYY-MM-DD -end YYYY-MM-DD [options]

List the editions published in a date range, one "date edition" pair per line.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}

	if *start == "" || *end == "" {
		fmt.Fprintln(stderr, "Error: -start and -end are required")
		fs.Usage()
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

	client := index.NewClient(httpClient(cfg), index.Options{
		URL:    cfg.IndexURL,
		Entity: cfg.Entity,
		Logger: log,
	})

	editions, code := fetchIndex(ctx, client, log, *start, *end)
	if code != ExitSuccess {
		return code
	}

	for _, p := range index.Pairs(edition.Filter(editions, selector)) {
		fmt.Fprintf(stdout, "%s\t%s\n", p.Date, p.Edition)
	}
	return ExitSuccess
}
