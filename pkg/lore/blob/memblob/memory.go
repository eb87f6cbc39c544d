// Package memblob is an in-memory blob.Store for tests and ephemeral runs.
package memblob

import (
	"context"
	"sync"
	"time"

	"github.com/cognicore/loredb/pkg/lore/blob"
)

type entry struct {
	data     []byte
	modified time.Time
}

// Store is an in-memory implementation of blob.Store.
type Store struct {
	mu    sync.RWMutex
	blobs map[blob.Path]entry
	now   func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		blobs: make(map[blob.Path]entry),
		now:   time.Now,
	}
}

// SetClock overrides the modification-time source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Exists implements blob.Store.
func (s *Store) Exists(ctx context.Context, path blob.Path) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[path]
	return ok, nil
}

// LastModified implements blob.Store.
func (s *Store) LastModified(ctx context.Context, path blob.Path) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.blobs[path]
	if !ok {
		return time.Time{}, false, nil
	}
	return e.modified, true, nil
}

// Load implements blob.Store.
func (s *Store) Load(ctx context.Context, path blob.Path) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.blobs[path]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, true, nil
}

// Save implements blob.Store.
func (s *Store) Save(ctx context.Context, path blob.Path, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.blobs[path] = entry{data: stored, modified: s.now()}
	return nil
}

// Delete implements blob.Store. Deleting an absent path is a no-op.
func (s *Store) Delete(ctx context.Context, path blob.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, path)
	return nil
}

// List implements blob.Store.
func (s *Store) List(ctx context.Context, prefix blob.Path) ([]blob.Path, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []blob.Path
	for p := range s.blobs {
		if p.HasPrefix(prefix) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Len returns the number of stored blobs. Test hook.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
