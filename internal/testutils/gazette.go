// Package testutils provides shared test infrastructure: a fake gazette
// platform serving the index and edition PDFs, and a MinIO container for
// integration tests.
package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Edition is one edition published by a Gazette.
type Edition struct {
	Number int
	Date   string
	PDF    []byte
}

// Gazette is a fake publishing platform. The index answers POST requests at
// /index and edition PDFs are served from /files/<NNNN>.pdf.
type Gazette struct {
	Server *httptest.Server

	mu       sync.Mutex
	editions []Edition
	rejects  int

	indexCalls atomic.Int64
	fileCalls  atomic.Int64
}

// StartGazette starts a Gazette serving the given editions. The server is
// closed when the test finishes.
func StartGazette(t *testing.T, editions []Edition) *Gazette {
	t.Helper()

	g := &Gazette{editions: editions}
	mux := http.NewServeMux()
	mux.HandleFunc("/index", g.serveIndex)
	mux.HandleFunc("/files/", g.serveFile)
	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Server.Close)
	return g
}

// IndexURL is the index endpoint.
func (g *Gazette) IndexURL() string {
	return g.Server.URL + "/index"
}

// FileURLTemplate is a format string for edition PDF URLs.
func (g *Gazette) FileURLTemplate() string {
	return g.Server.URL + "/files/%04d.pdf"
}

// RejectNext makes the next n index requests fail with 400 Bad Request.
func (g *Gazette) RejectNext(n int) {
	g.mu.Lock()
	g.rejects = n
	g.mu.Unlock()
}

// IndexCalls returns the number of index requests served.
func (g *Gazette) IndexCalls() int {
	return int(g.indexCalls.Load())
}

// FileCalls returns the number of file requests served.
func (g *Gazette) FileCalls() int {
	return int(g.fileCalls.Load())
}

func (g *Gazette) serveIndex(w http.ResponseWriter, r *http.Request) {
	g.indexCalls.Add(1)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	reject := g.rejects > 0
	if reject {
		g.rejects--
	}
	editions := g.editions
	g.mu.Unlock()

	if reject {
		http.Error(w, "try again", http.StatusBadRequest)
		return
	}

	start, err := time.Parse(time.DateOnly, r.PostForm.Get("start_date"))
	if err != nil {
		http.Error(w, "bad start_date", http.StatusUnprocessableEntity)
		return
	}
	end, err := time.Parse(time.DateOnly, r.PostForm.Get("end_date"))
	if err != nil {
		http.Error(w, "bad end_date", http.StatusUnprocessableEntity)
		return
	}

	diaries := make([]map[string]any, 0, len(editions))
	for _, e := range editions {
		d, err := time.Parse(time.DateOnly, e.Date)
		if err != nil || d.Before(start) || d.After(end) {
			continue
		}
		diaries = append(diaries, map[string]any{
			"edicao": strconv.Itoa(e.Number),
			"data":   e.Date,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"diaries": diaries})
}

func (g *Gazette) serveFile(w http.ResponseWriter, r *http.Request) {
	g.fileCalls.Add(1)

	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/files/"), ".pdf")
	n, err := strconv.Atoi(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.editions {
		if e.Number == n && e.PDF != nil {
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Length", strconv.Itoa(len(e.PDF)))
			w.Write(e.PDF)
			return
		}
	}
	http.NotFound(w, r)
}

// FakePDF returns a small deterministic PDF-looking payload for an edition.
func FakePDF(number int) []byte {
	return []byte(fmt.Sprintf("%%PDF-1.4\n%% edition %d\n%s%%%%EOF\n", number, strings.Repeat("x", number%97)))
}
