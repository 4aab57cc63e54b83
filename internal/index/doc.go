// Package index queries the publishing platform for the editions of the
// gazette published within a date range.
//
//	r, err := index.ParseRange("2022-01-01", "2022-01-30")
//	client := index.NewClient(httpClient, index.Options{})
//	editions, err := client.FetchEditions(ctx, r)
package index
