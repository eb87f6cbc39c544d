// Package lore wires the transition-frequency engine together: a blob
// backend underneath a cached frequency database, the document library, and
// the editor that keeps both consistent.
package lore

import (
	"context"
	"io"
	"time"

	"github.com/cognicore/loredb/pkg/lore/blob"
	"github.com/cognicore/loredb/pkg/lore/database"
	"github.com/cognicore/loredb/pkg/lore/editor"
	"github.com/cognicore/loredb/pkg/lore/library"
	"github.com/cognicore/loredb/pkg/lore/model"
)

// Options configures an Engine.
type Options struct {
	// Blobs is the storage backend. Required.
	Blobs blob.Store
	// DatabaseRoot, CacheSize and CacheTTL tune the frequency database;
	// zero values select the database package defaults.
	DatabaseRoot string
	CacheSize    int
	CacheTTL     time.Duration
	// LibraryRoot is the prefix document blobs live under; empty selects
	// the library package default.
	LibraryRoot string
}

// Engine is the main facade.
type Engine struct {
	blobs blob.Store
	db    *database.Database
	lib   *library.Library
	ed    *editor.Editor
}

// New creates an Engine with the given dependencies.
func New(opts Options) *Engine {
	db := database.New(opts.Blobs, database.Config{
		Root:      opts.DatabaseRoot,
		CacheSize: opts.CacheSize,
		CacheTTL:  opts.CacheTTL,
	})
	lib := library.New(opts.Blobs, opts.LibraryRoot)
	return &Engine{
		blobs: opts.Blobs,
		db:    db,
		lib:   lib,
		ed:    editor.New(db, lib),
	}
}

// Put stores doc as the new revision of id, updating every transition count
// against whatever revision was stored before.
func (e *Engine) Put(ctx context.Context, id library.ID, doc *model.Lore) error {
	old, ok, err := e.lib.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		old = nil
	}
	return e.ed.Apply(ctx, id, old, doc)
}

// Remove deletes the document and unwinds its transition counts. Removing an
// unknown ID is a no-op.
func (e *Engine) Remove(ctx context.Context, id library.ID) error {
	old, ok, err := e.lib.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return e.ed.Apply(ctx, id, old, nil)
}

// Get returns the stored revision of a document.
func (e *Engine) Get(ctx context.Context, id library.ID) (*model.Lore, bool, error) {
	return e.lib.Get(ctx, id)
}

// List returns every stored document ID.
func (e *Engine) List(ctx context.Context) ([]library.ID, error) {
	return e.lib.List(ctx)
}

// Database exposes the frequency database, e.g. for inspection tools.
func (e *Engine) Database() *database.Database {
	return e.db
}

// Close releases the backend if it holds resources.
func (e *Engine) Close() error {
	if c, ok := e.blobs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
