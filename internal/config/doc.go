// Package config defines configuration structures for the diario CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (DIARIO_ prefix)
//   - YAML configuration file
//
// Flags win over the environment, which wins over the file.
//
// # Example
//
//	index_url: https://engine.procedebahia.com.br/publish/api/diaries
//	entity: "50"
//	storage: ./data
//	workers: 10
//	requests_per_second: 4
//	retry:
//	  attempts: 5
//	  backoff: 10s
//	  max_backoff: 2m
//	  statuses: [400]
package config
