// Package filestore provides content-addressed storage for document files.
// Files are stored under their blake2b-256 digest, so identical uploads
// share a single blob and version restores never duplicate content.
package filestore

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/docflow/docflow-backend/pkg/errors"
)

// Store persists file content on the local filesystem.
type Store struct {
	root        string
	maxFileSize int64
}

// New creates a file store rooted at the given directory.
func New(root string, maxFileSize int64) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Store{root: root, maxFileSize: maxFileSize}, nil
}

// Save writes the content to the store and returns its hex digest and size.
// Content larger than the configured limit is rejected.
func (s *Store) Save(r io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp(s.root, "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to init hasher: %w", err)
	}

	limited := io.LimitReader(r, s.maxFileSize+1)
	size, err := io.Copy(io.MultiWriter(tmp, hasher), limited)
	if err != nil {
		return "", 0, fmt.Errorf("failed to write content: %w", err)
	}
	if size > s.maxFileSize {
		return "", 0, errors.BadRequest(fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxFileSize))
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	dest := s.path(digest)

	if _, err := os.Stat(dest); err == nil {
		// Identical content already stored
		return digest, size, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", 0, fmt.Errorf("failed to store blob: %w", err)
	}

	return digest, size, nil
}

// Open returns a reader for the content with the given digest.
func (s *Store) Open(digest string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("file content")
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Exists reports whether content with the given digest is stored.
func (s *Store) Exists(digest string) bool {
	_, err := os.Stat(s.path(digest))
	return err == nil
}

// path maps a digest to its on-disk location, sharded by the first two
// characters to keep directory sizes manageable.
func (s *Store) path(digest string) string {
	if len(digest) < 2 {
		return filepath.Join(s.root, digest)
	}
	return filepath.Join(s.root, digest[:2], digest)
}
