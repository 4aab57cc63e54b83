package store

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Open opens the storage root for downloads and sidecars.
//
// root is either a bucket URL understood by gocloud (file://, mem://, s3://,
// gs://) or a plain local directory. A local directory is created if absent
// and written without fileblob's .attrs sidecar files.
func Open(ctx context.Context, root string) (*blob.Bucket, error) {
	if root == "" {
		root = "."
	}

	if !isURL(root) {
		dir, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve storage root: %w", err)
		}
		bkt, err := fileblob.OpenBucket(dir, &fileblob.Options{
			CreateDir: true,
			NoTempDir: true,
			Metadata:  fileblob.MetadataDontWrite,
		})
		if err != nil {
			return nil, fmt.Errorf("open directory %s: %w", dir, err)
		}
		return bkt, nil
	}

	bkt, err := blob.OpenBucket(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", root, err)
	}
	return bkt, nil
}

// Key joins path elements into a slash-separated object key.
func Key(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for _, e := range elem {
		e = strings.Trim(filepath.ToSlash(e), "/")
		if e != "" && e != "." {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, "/")
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	// Single-letter schemes are Windows drive letters.
	return len(u.Scheme) > 1 && strings.Contains(s, "://")
}
