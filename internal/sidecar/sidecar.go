package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/ligustah/diario/internal/store"
)

// Origin tags every record with the gazette it came from.
const Origin = "Irece-BA/DOM"

// DefaultDir is where sidecars are written inside the bucket.
const DefaultDir = "out"

// ErrNotFound is returned by Read when no sidecar exists for an edition.
var ErrNotFound = errors.New("sidecar: not found")

// Record describes one downloaded edition. Field order is the on-disk order.
type Record struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Origin string `json:"origin"`
}

// Writer writes sidecar records into a bucket directory.
type Writer struct {
	bucket *blob.Bucket
	dir    string
}

// NewWriter creates a Writer for dir. An empty dir means DefaultDir.
func NewWriter(bucket *blob.Bucket, dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{bucket: bucket, dir: dir}
}

// Key returns the object key of an edition's sidecar.
func (w *Writer) Key(edition string) string {
	return store.Key(w.dir, edition+".json")
}

// Write stores the record for a downloaded edition and returns its key. An
// empty localPath marks a failed download: nothing is written and Write
// returns "" with a nil error. Existing records are overwritten.
func (w *Writer) Write(ctx context.Context, localPath, edition, date string) (string, error) {
	if localPath == "" {
		return "", nil
	}
	if edition == "" {
		return "", errors.New("sidecar: edition is required")
	}

	data, err := Encode(Record{
		Path:   localPath,
		Name:   edition,
		Date:   date,
		Origin: Origin,
	})
	if err != nil {
		return "", err
	}

	key := w.Key(edition)
	if err := w.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{
		ContentType: "application/json; charset=utf-8",
	}); err != nil {
		return "", fmt.Errorf("write sidecar %s: %w", key, err)
	}
	return key, nil
}

// Read loads the record of an edition.
func (w *Writer) Read(ctx context.Context, edition string) (Record, error) {
	key := w.Key(edition)
	data, err := w.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Record{}, fmt.Errorf("read sidecar %s: %w", key, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse sidecar %s: %w", key, err)
	}
	return rec, nil
}

// Encode renders a record as indented JSON without escaping non-ASCII or
// HTML characters.
func Encode(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode sidecar: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
