// Package files manages uploaded content on disk: durable per-user
// upload directories, short-lived query scratch files, and the periodic
// purge that keeps the scratch area bounded.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// queryScratchDir holds per-user subdirectories of short-lived query
// uploads, beneath the store root.
const queryScratchDir = "queries"

// Store abstracts file persistence for uploads and query scratch files.
// Paths returned and accepted are relative to the store root so database
// rows stay portable across hosts.
type Store interface {
	// SaveFile persists an uploaded content file under the user's
	// directory and returns its relative path and size in bytes.
	SaveFile(userID uint, name string, r io.Reader) (string, int64, error)
	// SaveQueryFile persists a short-lived query upload under the user's
	// scratch directory.
	SaveQueryFile(userID uint, name string, r io.Reader) (string, int64, error)
	// Resolve turns a stored relative path into an absolute one,
	// rejecting anything that escapes the root.
	Resolve(relPath string) (string, error)
	// Exists reports whether the stored path is present on disk.
	Exists(relPath string) bool
	// Delete removes the stored file.
	Delete(relPath string) error
}

// DiskStore implements Store on the local filesystem.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root and query scratch directories if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload root: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, queryScratchDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

// QueryRoot returns the absolute path of the query scratch area.
func (s *DiskStore) QueryRoot() string {
	return filepath.Join(s.root, queryScratchDir)
}

// SaveFile persists an uploaded content file under the user's directory.
func (s *DiskStore) SaveFile(userID uint, name string, r io.Reader) (string, int64, error) {
	return s.save(fmt.Sprintf("%d", userID), name, r)
}

// SaveQueryFile persists a short-lived query upload under the user's
// scratch directory.
func (s *DiskStore) SaveQueryFile(userID uint, name string, r io.Reader) (string, int64, error) {
	return s.save(filepath.Join(queryScratchDir, fmt.Sprintf("%d", userID)), name, r)
}

// save writes the stream into dir with a collision-proof name. The uuid
// prefix keeps repeated uploads of the same filename distinct.
func (s *DiskStore) save(dir, name string, r io.Reader) (string, int64, error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", 0, fmt.Errorf("invalid file name %q", name)
	}

	absDir := filepath.Join(s.root, dir)
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	relPath := filepath.Join(dir, uuid.NewString()+"_"+base)
	f, err := os.Create(filepath.Join(s.root, relPath))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.root, relPath))
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	return relPath, size, nil
}

// Resolve turns a stored relative path into an absolute one.
func (s *DiskStore) Resolve(relPath string) (string, error) {
	abs := filepath.Join(s.root, relPath)
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the upload root", relPath)
	}
	return abs, nil
}

// Exists reports whether the stored path is present on disk.
func (s *DiskStore) Exists(relPath string) bool {
	abs, err := s.Resolve(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Delete removes the stored file. Deleting an already-absent file is not
// an error.
func (s *DiskStore) Delete(relPath string) error {
	abs, err := s.Resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
