package main

import (
	"fmt"
	"io"
	"os"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitInvalidArgs    = 2
	ExitIndexError     = 3
	ExitStorageError   = 4
	ExitDownloadFailed = 5
	ExitNotFound       = 6
)

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "list":
		return runList(cmdArgs)
	case "fetch":
		return runFetch(cmdArgs)
	case "show":
		return runShow(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(stderr, `Usage: diario <command> [options]

Commands:
  list   List the editions published in a date range
  fetch  Download edition PDFs and write their JSON sidecars
  show   Print the sidecar record of a downloaded edition

Run 'diario <command> -h' for command-specific help.`)
}
