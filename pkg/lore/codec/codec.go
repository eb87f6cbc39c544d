// Package codec maps chain values to their stored form: a key to the blob
// path its table lives at, and a table to the JSON blob format.
//
// The blob format is an array of [target, count] pairs. A target is [] for
// end-of-sentence and [token] for a following token; the token object
// mirrors the model.Token variant encoding. Encoding is deterministic
// (pairs are sorted), decoding rejects any malformed shape.
package codec

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/cognicore/loredb/pkg/lore/blob"
	"github.com/cognicore/loredb/pkg/lore/chain"
	"github.com/cognicore/loredb/pkg/lore/internalerr"
	"github.com/cognicore/loredb/pkg/lore/model"
)

// PathFor derives the storage path for a key, relative to the database root.
func PathFor(key chain.Key) blob.Path {
	token, ok := key.Token()
	if !ok {
		return blob.Path("start")
	}
	switch token.Kind {
	case model.KindName:
		return blob.Path("name").Join(escapeSegment(string(token.Category)), escapeSegment(token.Content))
	default:
		pos := token.PartOfSpeech
		if pos == "" {
			pos = model.NoPartOfSpeech
		}
		return blob.Path("text").Join(escapeSegment(pos), escapeSegment(token.Content))
	}
}

// escapeSegment escapes one path segment. Dot-only segments are forced into
// percent form so they can never collapse a path.
func escapeSegment(s string) string {
	e := url.PathEscape(s)
	switch e {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return e
}

// EncodeTable serializes a table into the blob format. The table must be
// valid (non-empty, positive counts).
func EncodeTable(table chain.Table) ([]byte, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	type pair struct {
		targetJSON []byte
		count      int64
	}
	pairs := make([]pair, 0, len(table))
	for target, count := range table {
		tj, err := encodeTarget(target)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{targetJSON: tj, count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return string(pairs[i].targetJSON) < string(pairs[j].targetJSON)
	})

	raw := make([][2]json.RawMessage, len(pairs))
	for i, p := range pairs {
		cj, err := json.Marshal(p.count)
		if err != nil {
			return nil, err
		}
		raw[i] = [2]json.RawMessage{p.targetJSON, cj}
	}
	return json.Marshal(raw)
}

func encodeTarget(target chain.Target) ([]byte, error) {
	token, ok := target.Token()
	if !ok {
		return []byte("[]"), nil
	}
	return json.Marshal([]model.Token{token})
}

// DecodeTable parses the blob format back into a table. Any malformed shape
// fails with internalerr.ErrCodec: wrong pair arity, wrong target arity,
// non-positive or non-integer counts, duplicate targets, or an empty table.
func DecodeTable(data []byte) (chain.Table, error) {
	var raw [][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: table: %v", internalerr.ErrCodec, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty table", internalerr.ErrCodec)
	}

	table := make(chain.Table, len(raw))
	for _, pair := range raw {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: pair has %d elements, want 2", internalerr.ErrCodec, len(pair))
		}
		target, err := decodeTarget(pair[0])
		if err != nil {
			return nil, err
		}
		var count int64
		if err := json.Unmarshal(pair[1], &count); err != nil {
			return nil, fmt.Errorf("%w: count for %s: %v", internalerr.ErrCodec, target, err)
		}
		if count <= 0 {
			return nil, fmt.Errorf("%w: non-positive count %d for %s", internalerr.ErrCodec, count, target)
		}
		if _, dup := table[target]; dup {
			return nil, fmt.Errorf("%w: duplicate target %s", internalerr.ErrCodec, target)
		}
		table[target] = count
	}
	return table, nil
}

func decodeTarget(data []byte) (chain.Target, error) {
	var tokens []model.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return chain.Target{}, fmt.Errorf("%w: target: %v", internalerr.ErrCodec, err)
	}
	switch len(tokens) {
	case 0:
		return chain.End, nil
	case 1:
		return chain.Continue(tokens[0]), nil
	default:
		return chain.Target{}, fmt.Errorf("%w: target has %d tokens, want 0 or 1", internalerr.ErrCodec, len(tokens))
	}
}
