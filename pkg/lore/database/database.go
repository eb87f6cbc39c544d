// Package database persists one frequency table per chain key in a blob
// store, behind a bounded TTL cache. Concurrent loads of the same key are
// collapsed into a single backend read.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/cognicore/loredb/pkg/lore/blob"
	"github.com/cognicore/loredb/pkg/lore/chain"
	"github.com/cognicore/loredb/pkg/lore/codec"
	"github.com/cognicore/loredb/pkg/lore/internalerr"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultRoot      = "database"
	DefaultCacheSize = 1024
	DefaultCacheTTL  = time.Minute
)

// Config tunes a Database.
type Config struct {
	// Root is the path prefix every table blob lives under.
	Root string
	// CacheSize bounds the number of cached tables (LRU eviction).
	CacheSize int
	// CacheTTL bounds how long a cached table may be served without a
	// backend re-read.
	CacheTTL time.Duration
}

// cached is one cache entry; ok=false records a known-absent key, so misses
// are not re-fetched within the TTL either.
type cached struct {
	table chain.Table
	ok    bool
}

// Database is the cached frequency store. Safe for concurrent use.
type Database struct {
	blobs blob.Store
	root  blob.Path
	cache *lru.LRU[chain.Key, cached]
	group singleflight.Group
}

// New creates a Database over the given backend.
func New(blobs blob.Store, cfg Config) *Database {
	root := cfg.Root
	if root == "" {
		root = DefaultRoot
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Database{
		blobs: blobs,
		root:  blob.Path(root),
		cache: lru.NewLRU[chain.Key, cached](size, nil, ttl),
	}
}

// Root returns the path prefix tables are stored under.
func (d *Database) Root() blob.Path { return d.root }

// PathFor returns the absolute blob path for a key.
func (d *Database) PathFor(key chain.Key) blob.Path {
	return d.root.Join(string(codec.PathFor(key)))
}

// Load returns the table for a key, with false when the key is not stored.
// A cached entry is served until it expires; otherwise exactly one backend
// read per key runs however many callers arrive concurrently.
func (d *Database) Load(ctx context.Context, key chain.Key) (chain.Table, bool, error) {
	if ent, hit := d.cache.Get(key); hit {
		return copyOut(ent)
	}

	path := d.PathFor(key)
	v, err, _ := d.group.Do(string(path), func() (interface{}, error) {
		// A concurrent flight may have filled the cache while this
		// caller was waiting on the group.
		if ent, hit := d.cache.Get(key); hit {
			return ent, nil
		}
		data, ok, err := d.blobs.Load(ctx, path)
		if err != nil {
			return cached{}, storageErr("load", path, err)
		}
		if !ok {
			ent := cached{}
			d.cache.Add(key, ent)
			return ent, nil
		}
		table, err := codec.DecodeTable(data)
		if err != nil {
			return cached{}, fmt.Errorf("%s: %w", path, err)
		}
		ent := cached{table: table, ok: true}
		d.cache.Add(key, ent)
		return ent, nil
	})
	if err != nil {
		return nil, false, err
	}
	return copyOut(v.(cached))
}

// Save validates, encodes and writes the table for a key, then drops the
// cache entry so the next load re-reads the backend.
func (d *Database) Save(ctx context.Context, key chain.Key, table chain.Table) error {
	data, err := codec.EncodeTable(table)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	path := d.PathFor(key)
	if err := d.blobs.Save(ctx, path, data); err != nil {
		return storageErr("save", path, err)
	}
	d.cache.Remove(key)
	return nil
}

// Delete removes the key's blob and drops the cache entry.
func (d *Database) Delete(ctx context.Context, key chain.Key) error {
	path := d.PathFor(key)
	if err := d.blobs.Delete(ctx, path); err != nil {
		return storageErr("delete", path, err)
	}
	d.cache.Remove(key)
	return nil
}

// copyOut hands an independent table to the caller so cached state can never
// be mutated from outside.
func copyOut(ent cached) (chain.Table, bool, error) {
	if !ent.ok {
		return nil, false, nil
	}
	return ent.table.Clone(), true, nil
}

// storageErr folds a backend error into the storage taxonomy unless it
// already carries it.
func storageErr(op string, path blob.Path, err error) error {
	if errors.Is(err, internalerr.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %v", internalerr.ErrStorage, op, path, err)
}
