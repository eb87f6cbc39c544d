// Package fsblob is a filesystem-backed blob.Store: one file per path under
// a root directory. Path segments arrive already URL-escaped, so they map
// directly onto directory entries.
package fsblob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cognicore/loredb/pkg/lore/blob"
	"github.com/cognicore/loredb/pkg/lore/internalerr"
)

// Store persists blobs under a root directory.
type Store struct {
	root string
}

// New creates the root directory if needed and returns a store over it.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty root directory", internalerr.ErrInvalidInput)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create root %s: %v", internalerr.ErrStorage, root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) filename(path blob.Path) string {
	return filepath.Join(s.root, filepath.FromSlash(string(path)))
}

// Exists implements blob.Store.
func (s *Store) Exists(ctx context.Context, path blob.Path) (bool, error) {
	info, err := os.Stat(s.filename(path))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %v", internalerr.ErrStorage, path, err)
	}
	return !info.IsDir(), nil
}

// LastModified implements blob.Store.
func (s *Store) LastModified(ctx context.Context, path blob.Path) (time.Time, bool, error) {
	info, err := os.Stat(s.filename(path))
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: stat %s: %v", internalerr.ErrStorage, path, err)
	}
	if info.IsDir() {
		return time.Time{}, false, nil
	}
	return info.ModTime(), true, nil
}

// Load implements blob.Store.
func (s *Store) Load(ctx context.Context, path blob.Path) ([]byte, bool, error) {
	data, err := os.ReadFile(s.filename(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s: %v", internalerr.ErrStorage, path, err)
	}
	return data, true, nil
}

// Save implements blob.Store.
func (s *Store) Save(ctx context.Context, path blob.Path, data []byte) error {
	name := s.filename(path)
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("%w: create dirs for %s: %v", internalerr.ErrStorage, path, err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", internalerr.ErrStorage, path, err)
	}
	return nil
}

// Delete implements blob.Store. Deleting an absent path is a no-op.
func (s *Store) Delete(ctx context.Context, path blob.Path) error {
	err := os.Remove(s.filename(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: delete %s: %v", internalerr.ErrStorage, path, err)
	}
	return nil
}

// List implements blob.Store.
func (s *Store) List(ctx context.Context, prefix blob.Path) ([]blob.Path, error) {
	var out []blob.Path
	err := filepath.WalkDir(s.root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, name)
		if err != nil {
			return err
		}
		p := blob.Path(filepath.ToSlash(rel))
		if p.HasPrefix(prefix) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", internalerr.ErrStorage, prefix, err)
	}
	return out, nil
}
