// Package progress reports edition download progress on stderr.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    TotalEditions: len(requests),
//	    Workers:       10,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	reporter.EditionStarted()
//	reporter.EditionCompleted(n)
//
// # Output Format
//
//	[diario] Downloading 22 editions | Workers: 10
//	[diario] Editions: 14 completed | 1 failed | 7 running | 0 pending | 18.40 MB
package progress
