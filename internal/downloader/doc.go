// Package downloader fetches gazette edition PDFs in parallel.
//
// A single edition is fetched with [Downloader.DownloadEdition]: one GET of
// the URL built from the edition number, streamed into the bucket. There is
// no retry; a failure is reported in the [Result].
//
// # Usage
//
//	d := downloader.New(client, bucket, downloader.Options{Workers: 10})
//	results, err := d.DownloadEditions(ctx, []int{1797, 1799}, "pdfs")
//	for _, r := range results {
//	    if !r.OK() {
//	        log.Printf("edition %d: %v", r.Edition, r.Err)
//	    }
//	}
//
// # Worker Pool
//
// [Downloader.DownloadAll] queues every request on a channel served by a
// fixed number of workers. Workers finish in any order; results are matched
// back to their requests before returning, so results[i] always belongs to
// reqs[i]. A batch naming the same edition or destination twice is rejected
// before any request is sent.
package downloader
