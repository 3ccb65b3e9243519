// Package fs provides a filesystem-backed blob store.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-asset/pkg/simpleasset"
)

// Config options for the filesystem blob store
type Config struct {
	BaseDir string // Base directory for storing objects
}

// Store is a filesystem implementation of the simpleasset.BlobStore interface
type Store struct {
	baseDir string
}

// New creates a new filesystem blob store, creating the base directory if it
// does not exist.
func New(config Config) (*Store, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{baseDir: config.BaseDir}, nil
}

// path maps an object key to a filesystem path, rejecting keys that escape
// the base directory.
func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

// ReadFileToBuffer reads the full object under key into memory
func (s *Store) ReadFileToBuffer(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", simpleasset.ErrObjectNotFound, key)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// WriteFileFromBuffer writes data under key and returns the stored key
func (s *Store) WriteFileFromBuffer(ctx context.Context, key string, data []byte) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	return key, nil
}

// FileExists reports whether an object exists under key
func (s *Store) FileExists(ctx context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

// Delete removes the object under key
func (s *Store) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", simpleasset.ErrObjectNotFound, key)
	} else if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
