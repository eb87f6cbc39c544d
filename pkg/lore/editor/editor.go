// Package editor turns document add, update and remove operations into
// transition-count deltas and applies them against the database.
//
// An edit decrements every transition of the old revision and increments
// every transition of the new one, inside a single connection committed at
// the end. The per-sentence walk starts at chain.Start, records the next
// token under the current key, advances to chain.From(token), and closes
// the sentence with chain.End under the last token's key.
package editor

import (
	"context"
	"log"

	"github.com/cognicore/loredb/pkg/lore/chain"
	"github.com/cognicore/loredb/pkg/lore/database"
	"github.com/cognicore/loredb/pkg/lore/library"
	"github.com/cognicore/loredb/pkg/lore/model"
)

// Editor applies document edits. Safe to share; each Apply call runs its own
// connection.
type Editor struct {
	db  *database.Database
	lib *library.Library
}

// New creates an Editor over the database and document library.
func New(db *database.Database, lib *library.Library) *Editor {
	return &Editor{db: db, lib: lib}
}

// Apply replaces the stored revision old of the document id with new and
// keeps every transition count consistent. Either revision may be nil: nil
// old is an insert, nil new a removal, both nil a no-op. Equal revisions
// touch the library record and mutate no tables.
//
// Apply is not idempotent: re-running a half-failed edit can double-apply
// deltas, so callers must treat a failed edit as "state indeterminate" and
// retry the whole edit only from a known-good old revision.
func (e *Editor) Apply(ctx context.Context, id library.ID, old, new *model.Lore) error {
	if old == nil && new == nil {
		return nil
	}
	if old != nil {
		if err := old.Validate(); err != nil {
			return err
		}
	}
	if new != nil {
		if err := new.Validate(); err != nil {
			return err
		}
	}

	if old.Equal(new) {
		return e.lib.Touch(ctx, id)
	}

	err := database.WithConnection(ctx, e.db, func(conn *database.Connection) error {
		if old != nil {
			for _, s := range old.Sentences() {
				if err := walkSentence(ctx, conn, s, decrement); err != nil {
					return err
				}
			}
		}
		if new != nil {
			for _, s := range new.Sentences() {
				if err := walkSentence(ctx, conn, s, increment); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if new == nil {
		return e.lib.Remove(ctx, id)
	}
	return e.lib.Put(ctx, id, new)
}

type direction int

const (
	increment direction = iota
	decrement
)

// walkSentence runs one sentence walk in the given direction. The walk is a
// fresh pass per sentence and is strictly sequential: each step reads table
// state the previous steps may have written.
func walkSentence(ctx context.Context, conn *database.Connection, s model.Sentence, dir direction) error {
	key := chain.Start
	for _, tok := range s {
		if err := step(ctx, conn, key, chain.Continue(tok), dir); err != nil {
			return err
		}
		key = chain.From(tok)
	}
	return step(ctx, conn, key, chain.End, dir)
}

// step applies one transition delta under key.
func step(ctx context.Context, conn *database.Connection, key chain.Key, target chain.Target, dir direction) error {
	current, ok, err := conn.Load(ctx, key)
	if err != nil {
		return err
	}

	if dir == increment {
		return conn.Save(key, current.Incremented(target))
	}

	// Decrement. A missing table or target means the store disagrees with
	// the old revision we were handed; underflowing would corrupt counts,
	// so the step is skipped and logged instead.
	if !ok {
		log.Printf("editor: no table for %s while decrementing %s, skipping", key, target)
		return nil
	}
	next, empty, valid := current.Decremented(target)
	if !valid {
		log.Printf("editor: no count for %s under %s while decrementing, skipping", target, key)
		return nil
	}
	if empty {
		return conn.Delete(key)
	}
	return conn.Save(key, next)
}
