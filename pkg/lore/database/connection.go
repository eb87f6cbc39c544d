package database

import (
	"context"
	"fmt"

	"github.com/cognicore/loredb/pkg/lore/chain"
	"github.com/cognicore/loredb/pkg/lore/internalerr"
)

// Connection is a single-use transactional overlay over a Database. Edits
// accumulate as pending state and hit the backend only on Commit; loads see
// the pending state first (read-your-own-write). A Connection is owned by
// one edit session and is not safe for concurrent use.
type Connection struct {
	db      *Database
	saves   map[chain.Key]chain.Table
	deletes map[chain.Key]struct{}
	settled bool
}

// Begin opens a fresh connection. It must be settled exactly once, through
// Commit or Discard; WithConnection does this automatically.
func (d *Database) Begin() *Connection {
	return &Connection{
		db:      d,
		saves:   make(map[chain.Key]chain.Table),
		deletes: make(map[chain.Key]struct{}),
	}
}

// Load returns the table for a key as this connection sees it: pending
// deletes hide the key, pending saves shadow the database.
func (c *Connection) Load(ctx context.Context, key chain.Key) (chain.Table, bool, error) {
	if c.settled {
		return nil, false, internalerr.ErrConnectionDone
	}
	if _, deleted := c.deletes[key]; deleted {
		return nil, false, nil
	}
	if table, saved := c.saves[key]; saved {
		return table.Clone(), true, nil
	}
	return c.db.Load(ctx, key)
}

// Save records a pending write for the key. No backend I/O happens until
// Commit.
func (c *Connection) Save(key chain.Key, table chain.Table) error {
	if c.settled {
		return internalerr.ErrConnectionDone
	}
	if err := table.Validate(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	delete(c.deletes, key)
	c.saves[key] = table.Clone()
	return nil
}

// Delete records a pending delete for the key. No backend I/O happens until
// Commit.
func (c *Connection) Delete(key chain.Key) error {
	if c.settled {
		return internalerr.ErrConnectionDone
	}
	delete(c.saves, key)
	c.deletes[key] = struct{}{}
	return nil
}

// Commit applies every pending delete, then every pending save, to the
// database and settles the connection. The order is immaterial: a key is
// never pending in both sets.
//
// Commit is not atomic across keys. A failure partway leaves the writes
// already applied in place; the caller must treat the store as
// indeterminate and retry the whole edit.
func (c *Connection) Commit(ctx context.Context) error {
	if c.settled {
		return internalerr.ErrConnectionDone
	}
	c.settled = true

	for key := range c.deletes {
		if err := c.db.Delete(ctx, key); err != nil {
			return err
		}
	}
	for key, table := range c.saves {
		if err := c.db.Save(ctx, key, table); err != nil {
			return err
		}
	}
	c.saves = nil
	c.deletes = nil
	return nil
}

// Discard drops all pending state and settles the connection. Discarding an
// already settled connection is a no-op.
func (c *Connection) Discard() {
	c.settled = true
	c.saves = nil
	c.deletes = nil
}

// WithConnection runs fn inside a fresh connection and guarantees settlement
// on every exit path: the connection commits when fn succeeds and is
// discarded when fn returns an error, so a failed edit session never
// persists a half-applied walk.
func WithConnection(ctx context.Context, db *Database, fn func(*Connection) error) error {
	conn := db.Begin()
	defer conn.Discard()
	if err := fn(conn); err != nil {
		return err
	}
	return conn.Commit(ctx)
}
