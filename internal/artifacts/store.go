// Package artifacts stores generated and uploaded audio blobs and hands out
// stable references for them.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists audio artifacts.
type Store interface {
	// Put writes data and returns an opaque reference callers can hand to
	// clients (a URL path for the filesystem store, an s3:// URI for S3).
	Put(ctx context.Context, data []byte, ext string) (string, error)
}

// FSStore writes artifacts under a local directory, the way the original
// deployment served its uploads directory.
type FSStore struct {
	dir    string
	prefix string
}

// NewFSStore creates the directory if needed. prefix is prepended to the
// returned reference (e.g. "/uploads").
func NewFSStore(dir, prefix string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: create dir: %w", err)
	}
	return &FSStore{dir: dir, prefix: prefix}, nil
}

func (s *FSStore) Put(_ context.Context, data []byte, ext string) (string, error) {
	if ext == "" {
		ext = ".wav"
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("artifacts: write file: %w", err)
	}
	return s.prefix + "/" + name, nil
}
