package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/Vovarama1992/grenades/internal/metrics"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/spf13/afero"
)

// MediaBucket is the directory every uploaded object lives under.
const MediaBucket = "grenade-media"

type FSMediaStorage struct {
	fs       afero.Fs
	baseURL  string
	maxBytes int64
	metrics  *metrics.Metrics
}

func NewFSMediaStorage(fs afero.Fs, publicBaseURL string, maxBytes int64, m *metrics.Metrics) *FSMediaStorage {
	return &FSMediaStorage{
		fs:       fs,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		maxBytes: maxBytes,
		metrics:  m,
	}
}

// objectKey is the absolute filesystem path of p inside the bucket.
func objectKey(p string) string {
	return path.Join("/", MediaBucket, path.Clean("/"+p))
}

func (s *FSMediaStorage) Upload(ctx context.Context, p, contentType string, body io.Reader) (string, error) {
	key := objectKey(p)
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}

	f, err := s.fs.OpenFile(key, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil && n > s.maxBytes {
		err = ports.ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(key)
		return "", fmt.Errorf("write object %s: %w", key, err)
	}

	s.metrics.MediaUploaded(n)
	return s.baseURL + "/media" + key, nil
}

func (s *FSMediaStorage) Remove(ctx context.Context, p string) error {
	if err := s.fs.Remove(objectKey(p)); err != nil {
		if os.IsNotExist(err) {
			return ports.ErrNotFound
		}
		return err
	}
	return nil
}

// Handler serves stored objects read-only. Mount it with the "/media/" prefix stripped.
func (s *FSMediaStorage) Handler() http.Handler {
	return http.FileServer(objectsOnly{afero.NewHttpFs(afero.NewReadOnlyFs(s.fs)).Dir("/")})
}

// objectsOnly hides directories so the bucket cannot be listed.
type objectsOnly struct {
	fs http.FileSystem
}

func (o objectsOnly) Open(name string) (http.File, error) {
	f, err := o.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
