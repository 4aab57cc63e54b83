package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"

	"github.com/ligustah/diario/internal/sidecar"
	"github.com/ligustah/diario/internal/store"
)

func runShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	common.register(fs)
	number := fs.Int("edition", 0, "Edition number (required)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: diario show -edition N [options]

Print the sidecar record of a downloaded edition.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if *number <= 0 {
		fmt.Fprintln(stderr, "Error: -edition is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, err := common.load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	bkt, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening storage: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	rec, err := sidecar.NewWriter(bkt, cfg.SidecarDir).Read(ctx, strconv.Itoa(*number))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, sidecar.ErrNotFound) {
			return ExitNotFound
		}
		return ExitStorageError
	}

	data, err := sidecar.Encode(rec)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	fmt.Fprintln(stdout, string(data))
	return ExitSuccess
}
