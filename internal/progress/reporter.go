package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// TotalEditions is the number of editions to download.
	TotalEditions int

	// Workers is the number of parallel workers.
	Workers int

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress information.
type Reporter struct {
	opts Options

	mu        sync.Mutex
	bytes     atomic.Int64
	completed atomic.Int32
	failed    atomic.Int32
	running   atomic.Int32
	startTime time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.mu.Lock()
	r.startTime = time.Now()
	r.started = true
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "[diario] Downloading %d editions | Workers: %d\n",
		r.opts.TotalEditions, r.opts.Workers)

	go r.updateLoop()
}

// Stop stops the reporter and prints the final status.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped || !r.started {
		r.stopped = true
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// EditionStarted marks an edition as running.
func (r *Reporter) EditionStarted() {
	r.running.Add(1)
}

// EditionCompleted marks a running edition as downloaded.
func (r *Reporter) EditionCompleted(size int64) {
	r.bytes.Add(size)
	r.completed.Add(1)
	r.running.Add(-1)
}

// EditionFailed marks a running edition as failed.
func (r *Reporter) EditionFailed() {
	r.failed.Add(1)
	r.running.Add(-1)
}

// Counts returns completed, failed and running edition counts.
func (r *Reporter) Counts() (completed, failed, running int) {
	return int(r.completed.Load()), int(r.failed.Load()), int(r.running.Load())
}

func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

func (r *Reporter) printProgress() {
	completed, failed, running := r.Counts()
	pending := r.opts.TotalEditions - completed - failed - running
	if pending < 0 {
		pending = 0
	}

	fmt.Fprintf(r.opts.Output, "\r[diario] Editions: %d completed | %d failed | %d running | %d pending | %s    ",
		completed, failed, running, pending, FormatBytes(r.bytes.Load()))
}

func (r *Reporter) printFinalStatus() {
	completed, failed, _ := r.Counts()
	duration := time.Since(r.startTime)

	fmt.Fprintf(r.opts.Output, "\r[diario] Editions: %d completed | %d failed | %s in %s    \n",
		completed, failed, FormatBytes(r.bytes.Load()), formatDuration(duration))
}

// FormatBytes formats bytes as a human-readable string.
func FormatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
