package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const publicBaseURL = "https://storage.googleapis.com"

// objectWriter is the part of *storage.Writer Upload needs.
type objectWriter interface {
	io.Writer
	Close() error
}

// Store writes claim assets to a single GCS bucket.
type Store struct {
	client *storage.Client
	Bucket string

	openWriter func(ctx context.Context, path, mime string) objectWriter
}

// NewStore builds a client from service-account JSON held in memory.
func NewStore(ctx context.Context, bucket string, credentialsJSON []byte) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("gcs bucket name must not be empty")
	}
	if len(credentialsJSON) == 0 {
		return nil, errors.New("gcs service account credentials must not be empty")
	}

	client, err := storage.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	s := &Store{client: client, Bucket: bucket}
	s.openWriter = s.newObjectWriter
	return s, nil
}

func (s *Store) newObjectWriter(ctx context.Context, path, mime string) objectWriter {
	w := s.client.Bucket(s.Bucket).Object(path).NewWriter(ctx)
	w.ContentType = mime
	w.CacheControl = "public, max-age=31536000, immutable"
	return w
}

// Upload writes data to path and returns its public URL. Objects are
// immutable once written, so they are cached aggressively. A failed write
// is aborted by cancelling the writer's context, never by Close, which
// would finalize a partial object.
func (s *Store) Upload(ctx context.Context, data []byte, mime, path string) (string, error) {
	if path == "" {
		return "", errors.New("gcs object path must not be empty")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := s.openWriter(ctx, path, mime)

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		cancel()
		return "", fmt.Errorf("failed to write GCS object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", path, err)
	}
	return PublicURL(s.Bucket, path), nil
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// PublicURL is the browser-facing URL of an object in a public bucket.
func PublicURL(bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", publicBaseURL, bucket, strings.Join(segments, "/"))
}
