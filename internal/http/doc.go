// Package http provides the HTTP client used to talk to the gazette index
// API and the static PDF file host.
//
// This package handles:
//   - Form POSTs with bounded exponential backoff on transient rejections
//   - Single-attempt GETs that follow redirects
//   - Optional client-side request throttling
//   - Typed status errors
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	// Query the index; 400 responses are retried with backoff
//	body, err := client.PostForm(ctx, indexURL, url.Values{"cod_entity": {"50"}})
//
//	// Fetch a file
//	rc, err := client.Get(ctx, fileURL)
//	defer rc.Close()
//
// Every non-2xx response surfaces as a *StatusError, which matches
// ErrNotFound, ErrForbidden and friends through errors.Is.
package http
