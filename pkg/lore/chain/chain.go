// Package chain holds the data model of the transition-frequency chain: the
// context Key under which transitions are observed, the Target outcome, and
// the frequency Table mapping targets to counts.
package chain

import (
	"fmt"

	"github.com/cognicore/loredb/pkg/lore/internalerr"
	"github.com/cognicore/loredb/pkg/lore/model"
)

// Key is the context a transition distribution is modeled under: either the
// beginning of a sentence, or the token preceding the modeled position.
// Keys are comparable and hash by value.
type Key struct {
	start bool
	token model.Token
}

// Start is the key for the beginning of a sentence.
var Start = Key{start: true}

// From returns the key for positions preceded by the given token.
func From(t model.Token) Key {
	return Key{token: t}
}

// IsStart reports whether the key marks the beginning of a sentence.
func (k Key) IsStart() bool { return k.start }

// Token returns the preceding token and true, or a zero token and false for
// the start key.
func (k Key) Token() (model.Token, bool) {
	if k.start {
		return model.Token{}, false
	}
	return k.token, true
}

func (k Key) String() string {
	if k.start {
		return "start"
	}
	return fmt.Sprintf("from(%s %q)", k.token.Kind, k.token.Content)
}

// Target is the outcome whose frequency is tracked under a key: either a
// following token, or the end of the sentence. Targets are comparable.
type Target struct {
	end   bool
	token model.Token
}

// End is the end-of-sentence target.
var End = Target{end: true}

// Continue returns the target for the given following token.
func Continue(t model.Token) Target {
	return Target{token: t}
}

// IsEnd reports whether the target marks the end of a sentence.
func (t Target) IsEnd() bool { return t.end }

// Token returns the following token and true, or a zero token and false for
// the end target.
func (t Target) Token() (model.Token, bool) {
	if t.end {
		return model.Token{}, false
	}
	return t.token, true
}

func (t Target) String() string {
	if t.end {
		return "end"
	}
	return fmt.Sprintf("continue(%s %q)", t.token.Kind, t.token.Content)
}

// Table is the frequency distribution over targets for one key. A valid
// table is non-empty and every count is strictly positive; an empty table
// never exists in the store — the key is deleted instead.
type Table map[Target]int64

// Validate checks the table invariants.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty table", internalerr.ErrInvalidInput)
	}
	for target, count := range t {
		if count <= 0 {
			return fmt.Errorf("%w: non-positive count %d for %s", internalerr.ErrInvalidInput, count, target)
		}
	}
	return nil
}

// Count returns the count for a target, zero when absent.
func (t Table) Count(target Target) int64 {
	return t[target]
}

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for target, count := range t {
		out[target] = count
	}
	return out
}

// Incremented returns a copy of the table with the target's count raised by
// one. It works on a nil table, yielding a fresh one-entry table.
func (t Table) Incremented(target Target) Table {
	out := t.Clone()
	out[target]++
	return out
}

// Decremented returns a copy of the table with the target's count lowered by
// one, removing the target when its count reaches zero. The second result
// reports whether the resulting table is empty and the key should be
// deleted. Decrementing an absent target is the caller's invariant
// violation; the table is returned unchanged with ok=false.
func (t Table) Decremented(target Target) (out Table, empty bool, ok bool) {
	count, present := t[target]
	if !present || count <= 0 {
		return t, false, false
	}
	out = t.Clone()
	if count <= 1 {
		delete(out, target)
	} else {
		out[target] = count - 1
	}
	return out, len(out) == 0, true
}

// Equal reports value equality of two tables.
func (t Table) Equal(other Table) bool {
	if len(t) != len(other) {
		return false
	}
	for target, count := range t {
		if other[target] != count {
			return false
		}
	}
	return true
}
