package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// LocalBlobStore keeps blobs as files in one directory
type LocalBlobStore struct {
	rootDir string
}

// NewLocalBlobStore creates the directory if needed
func NewLocalBlobStore(rootDir string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalBlobStore{rootDir: rootDir}, nil
}

// Store implements BlobStore.Store
func (s *LocalBlobStore) Store(ctx context.Context, r io.Reader, declaredName, contentType string) (string, error) {
	ref, err := StoredName(declaredName, time.Now())
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.rootDir, ref)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close blob: %w", err)
	}

	return ref, nil
}

// Open implements BlobStore.Open
func (s *LocalBlobStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !validRef(ref) {
		return nil, ErrBlobNotFound
	}
	f, err := os.Open(filepath.Join(s.rootDir, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Delete implements BlobStore.Delete
func (s *LocalBlobStore) Delete(ctx context.Context, ref string) error {
	if !validRef(ref) {
		return ErrBlobNotFound
	}
	err := os.Remove(filepath.Join(s.rootDir, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrBlobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
