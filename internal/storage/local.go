package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore persists uploaded files on the local filesystem, keyed by their
// original filename. A second upload with the same name overwrites the
// first; the source system behaved this way and callers rely on stable
// /uploads/<name> paths.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the upload directory if needed and returns a store
// rooted at it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the root of the upload directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes the uploaded content under the original filename and returns
// the stored path relative to the server root (e.g. "uploads/photo.png").
func (s *LocalStore) Save(originalName string, r io.Reader) (string, error) {
	// Strip any directory components a client may have smuggled into the
	// filename; only the base name keys the file.
	name := filepath.Base(originalName)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", originalName)
	}

	dst := filepath.Join(s.dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return filepath.ToSlash(dst), nil
}

// Open returns a reader for a previously stored file.
func (s *LocalStore) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, filepath.Base(name)))
}
