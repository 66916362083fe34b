package ports

import (
	"context"
	"io"
)

type MediaStorage interface {
	// Upload stores body under path inside the media bucket and returns its public URL.
	Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}

// StoredMedia is an uploaded object: its path inside the bucket and its public URL.
type StoredMedia struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}
