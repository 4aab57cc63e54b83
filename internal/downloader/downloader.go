package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"gocloud.dev/blob"

	diariohttp "github.com/ligustah/diario/internal/http"
	"github.com/ligustah/diario/internal/progress"
	"github.com/ligustah/diario/internal/store"
)

// DefaultURLTemplate is the file host URL of an edition PDF, as a format
// string whose single verb receives the edition number.
const DefaultURLTemplate = "http://procedebahia.com.br/irece/publicacoes/Diario%%20Oficial" +
	"%%20-%%20PREFEITURA%%20MUNICIPAL%%20DE%%20IRECE%%20-%%20Ed%%20%04d.pdf"

var (
	// ErrDuplicateEdition is returned when a batch requests an edition twice.
	ErrDuplicateEdition = errors.New("downloader: duplicate edition")

	// ErrDuplicateDest is returned when two requests share a destination.
	ErrDuplicateDest = errors.New("downloader: duplicate destination")

	// ErrLengthMismatch is returned when editions and destinations differ in length.
	ErrLengthMismatch = errors.New("downloader: editions and destinations differ in length")
)

// Options configures the downloader.
type Options struct {
	// Workers is the number of parallel download workers.
	// Default: 10
	Workers int

	// URLTemplate builds the download URL from an edition number.
	// Default: DefaultURLTemplate
	URLTemplate string

	// Progress is an optional progress reporter.
	Progress *progress.Reporter

	// Logger receives per-edition debug output.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Request asks for one edition to be stored at Dest.
type Request struct {
	Edition int
	Dest    string
}

// Result is the outcome of one download. Path is empty on failure and Err
// carries the reason.
type Result struct {
	Edition int
	Path    string
	Bytes   int64
	Err     error
}

// OK reports whether the download succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Path != ""
}

// Downloader fetches edition PDFs into a bucket.
type Downloader struct {
	client *diariohttp.Client
	bucket *blob.Bucket
	opts   Options

	// fetch runs one task; replaced in tests.
	fetch func(ctx context.Context, req Request) Result
}

// New creates a Downloader writing into bucket.
func New(client *diariohttp.Client, bucket *blob.Bucket, opts Options) *Downloader {
	if opts.Workers <= 0 {
		opts.Workers = 10
	}
	if opts.URLTemplate == "" {
		opts.URLTemplate = DefaultURLTemplate
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	d := &Downloader{
		client: client,
		bucket: bucket,
		opts:   opts,
	}
	d.fetch = func(ctx context.Context, req Request) Result {
		return d.DownloadEdition(ctx, req.Edition, req.Dest)
	}
	return d
}

// URL returns the download URL of an edition.
func (d *Downloader) URL(number int) string {
	return fmt.Sprintf(d.opts.URLTemplate, number)
}

// DownloadEdition fetches one edition and writes it to dest in the bucket.
// It makes exactly one request and never returns a nil-error failure: a
// Result with an empty Path always carries Err.
func (d *Downloader) DownloadEdition(ctx context.Context, number int, dest string) Result {
	res := Result{Edition: number}
	url := d.URL(number)

	body, err := d.client.Get(ctx, url)
	if err != nil {
		res.Err = fmt.Errorf("download edition %d: %w", number, err)
		return res
	}
	defer body.Close()

	n, err := d.write(ctx, dest, body)
	if err != nil {
		res.Err = fmt.Errorf("write edition %d: %w", number, err)
		return res
	}

	res.Path = dest
	res.Bytes = n
	return res
}

// write streams r into key. A failed copy aborts the write so no partial
// object is left behind.
func (d *Downloader) write(ctx context.Context, key string, r io.Reader) (int64, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := d.bucket.NewWriter(wctx, key, &blob.WriterOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", key, err)
	}

	n, err := io.Copy(w, r)
	if err != nil {
		cancel()
		w.Close()
		return 0, fmt.Errorf("copy to %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", key, err)
	}
	return n, nil
}

// Requests zips parallel edition and destination sequences.
func Requests(editions []int, dests []string) ([]Request, error) {
	if len(editions) != len(dests) {
		return nil, fmt.Errorf("%w: %d editions, %d destinations", ErrLengthMismatch, len(editions), len(dests))
	}
	reqs := make([]Request, len(editions))
	for i := range editions {
		reqs[i] = Request{Edition: editions[i], Dest: dests[i]}
	}
	return reqs, nil
}

// Dest returns the default destination key of an edition under dir.
func Dest(dir string, number int) string {
	return store.Key(dir, fmt.Sprintf("%04d.pdf", number))
}

// DownloadEditions downloads editions into dir, one <NNNN>.pdf per edition.
func (d *Downloader) DownloadEditions(ctx context.Context, numbers []int, dir string) ([]Result, error) {
	reqs := make([]Request, len(numbers))
	for i, n := range numbers {
		reqs[i] = Request{Edition: n, Dest: Dest(dir, n)}
	}
	return d.DownloadAll(ctx, reqs)
}

// DownloadAll downloads every request over a bounded worker pool and returns
// one Result per request, in request order.
//
// Failed downloads are reported in their Result and never stop the others.
// The only error is an invalid batch, detected before anything is sent.
func (d *Downloader) DownloadAll(ctx context.Context, reqs []Request) ([]Result, error) {
	if err := validate(reqs); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return []Result{}, nil
	}

	workers := d.opts.Workers
	if workers > len(reqs) {
		workers = len(reqs)
	}

	jobs := make(chan Request, len(reqs))
	var (
		mu        sync.Mutex
		completed = make([]Result, 0, len(reqs))
		wg        sync.WaitGroup
	)

	// Start workers
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				res := d.run(ctx, req)

				mu.Lock()
				completed = append(completed, res)
				mu.Unlock()
			}
		}()
	}

	// Submit everything up front; the channel holds what workers have not
	// picked up yet.
	for _, req := range reqs {
		jobs <- req
	}
	close(jobs)

	wg.Wait()

	return reorder(reqs, completed), nil
}

// run executes one task and reports its state transitions.
func (d *Downloader) run(ctx context.Context, req Request) Result {
	if d.opts.Progress != nil {
		d.opts.Progress.EditionStarted()
	}

	res := d.fetch(ctx, req)
	if res.Path == "" && res.Err == nil {
		res.Err = fmt.Errorf("download edition %d: no output", req.Edition)
	}

	if res.OK() {
		d.opts.Logger.Debug("downloaded edition", "edition", req.Edition, "dest", res.Path, "bytes", res.Bytes)
		if d.opts.Progress != nil {
			d.opts.Progress.EditionCompleted(res.Bytes)
		}
	} else {
		res.Path = ""
		d.opts.Logger.Debug("edition download failed", "edition", req.Edition, "err", res.Err)
		if d.opts.Progress != nil {
			d.opts.Progress.EditionFailed()
		}
	}
	return res
}

// reorder matches each request to the completed result for its edition.
func reorder(reqs []Request, completed []Result) []Result {
	byEdition := make(map[int]Result, len(completed))
	for _, res := range completed {
		if _, ok := byEdition[res.Edition]; !ok {
			byEdition[res.Edition] = res
		}
	}

	out := make([]Result, len(reqs))
	for i, req := range reqs {
		res, ok := byEdition[req.Edition]
		if !ok {
			res = Result{Edition: req.Edition, Err: fmt.Errorf("download edition %d: no result", req.Edition)}
		}
		out[i] = res
	}
	return out
}

func validate(reqs []Request) error {
	editions := make(map[int]struct{}, len(reqs))
	dests := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		if _, ok := editions[req.Edition]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateEdition, req.Edition)
		}
		editions[req.Edition] = struct{}{}

		if _, ok := dests[req.Dest]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateDest, req.Dest)
		}
		dests[req.Dest] = struct{}{}
	}
	return nil
}
