package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"github.com/ligustah/diario/internal/store"
)

func TestWriteCreatesFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	bucket, err := store.Open(ctx, root)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer bucket.Close()

	w := NewWriter(bucket, "")
	key, err := w.Write(ctx, "/tmp/x.pdf", "1797", "2022-01-04")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "out/1797.json" {
		t.Errorf("expected key out/1797.json, got %s", key)
	}

	data, err := os.ReadFile(filepath.Join(root, "out", "1797.json"))
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]string{
		"path":   "/tmp/x.pdf",
		"name":   "1797",
		"date":   "2022-01-04",
		"origin": "Irece-BA/DOM",
	}
	if len(got) != len(want) {
		t.Errorf("expected %d fields, got %v", len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %s = %q, want %q", k, got[k], v)
		}
	}

	expected := `{
    "path": "/tmp/x.pdf",
    "name": "1797",
    "date": "2022-01-04",
    "origin": "Irece-BA/DOM"
}`
	if string(data) != expected {
		t.Errorf("unexpected layout:\n%s\nwant:\n%s", data, expected)
	}
}

func TestWriteEmptyPathIsNoop(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	bucket, err := store.Open(ctx, root)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer bucket.Close()

	key, err := NewWriter(bucket, "").Write(ctx, "", "1797", "2022-01-04")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "" {
		t.Errorf("expected empty key, got %q", key)
	}

	if _, err := os.Stat(filepath.Join(root, "out")); !os.IsNotExist(err) {
		t.Errorf("expected no out directory, stat err = %v", err)
	}
}

func TestWriteOverwrites(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	w := NewWriter(bucket, "sidecars")
	if _, err := w.Write(ctx, "pdfs/old.pdf", "1797", "2022-01-04"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write(ctx, "pdfs/new.pdf", "1797", "2022-01-05"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rec, err := w.Read(ctx, "1797")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rec.Path != "pdfs/new.pdf" || rec.Date != "2022-01-05" {
		t.Errorf("expected overwritten record, got %+v", rec)
	}
}

func TestWriteRequiresEdition(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	if _, err := NewWriter(bucket, "").Write(ctx, "pdfs/x.pdf", "", "2022-01-04"); err == nil {
		t.Error("expected error for empty edition")
	}
}

func TestReadNotFound(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	_, err = NewWriter(bucket, "").Read(ctx, "9999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEncodeKeepsNonASCII(t *testing.T) {
	data, err := Encode(Record{
		Path:   "pdfs/Diário <Irecê> & co.pdf",
		Name:   "1797",
		Date:   "2022-01-04",
		Origin: Origin,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := `"path": "pdfs/Diário <Irecê> & co.pdf"`
	if !strings.Contains(string(data), want) {
		t.Errorf("expected literal characters %s in %s", want, data)
	}
}
