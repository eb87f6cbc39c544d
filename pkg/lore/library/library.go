// Package library persists the analyzed source documents themselves, so an
// edit can find the previous revision it is replacing.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/loredb/pkg/lore/blob"
	"github.com/cognicore/loredb/pkg/lore/internalerr"
	"github.com/cognicore/loredb/pkg/lore/model"
)

// DefaultRoot is the path prefix document blobs live under.
const DefaultRoot = "library"

// ID identifies one logical document across revisions. It is a ULID.
type ID string

// NewID mints a fresh document ID.
func NewID() ID {
	return ID(ulid.Make().String())
}

// ParseID validates raw as a ULID.
func ParseID(raw string) (ID, error) {
	if _, err := ulid.ParseStrict(raw); err != nil {
		return "", fmt.Errorf("%w: document id %q: %v", internalerr.ErrInvalidInput, raw, err)
	}
	return ID(raw), nil
}

func (id ID) String() string { return string(id) }

// Library stores documents as JSON blobs under a root prefix.
type Library struct {
	blobs blob.Store
	root  blob.Path
}

// New creates a Library over the given backend. An empty root selects
// DefaultRoot.
func New(blobs blob.Store, root string) *Library {
	if root == "" {
		root = DefaultRoot
	}
	return &Library{blobs: blobs, root: blob.Path(root)}
}

func (l *Library) path(id ID) blob.Path {
	return l.root.Join(url.PathEscape(string(id)))
}

// Get returns the stored document, with false when the ID is unknown.
func (l *Library) Get(ctx context.Context, id ID) (*model.Lore, bool, error) {
	data, ok, err := l.blobs.Load(ctx, l.path(id))
	if err != nil {
		return nil, false, storageErr(id, err)
	}
	if !ok {
		return nil, false, nil
	}
	var doc model.Lore
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("%w: document %s: %v", internalerr.ErrCodec, id, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: document %s: %v", internalerr.ErrCodec, id, err)
	}
	return &doc, true, nil
}

// Put stores a document revision under the ID, replacing any previous one.
func (l *Library) Put(ctx context.Context, id ID, doc *model.Lore) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: document %s: %v", internalerr.ErrCodec, id, err)
	}
	if err := l.blobs.Save(ctx, l.path(id), data); err != nil {
		return storageErr(id, err)
	}
	return nil
}

// Remove deletes the document. Removing an unknown ID is a no-op.
func (l *Library) Remove(ctx context.Context, id ID) error {
	if err := l.blobs.Delete(ctx, l.path(id)); err != nil {
		return storageErr(id, err)
	}
	return nil
}

// Touch rewrites the stored bytes unchanged, bumping the modification time.
// Touching an unknown ID is an error.
func (l *Library) Touch(ctx context.Context, id ID) error {
	data, ok, err := l.blobs.Load(ctx, l.path(id))
	if err != nil {
		return storageErr(id, err)
	}
	if !ok {
		return fmt.Errorf("%w: touch unknown document %s", internalerr.ErrInvalidInput, id)
	}
	if err := l.blobs.Save(ctx, l.path(id), data); err != nil {
		return storageErr(id, err)
	}
	return nil
}

// LastModified returns when the document was last written, with false when
// the ID is unknown.
func (l *Library) LastModified(ctx context.Context, id ID) (time.Time, bool, error) {
	t, ok, err := l.blobs.LastModified(ctx, l.path(id))
	if err != nil {
		return time.Time{}, false, storageErr(id, err)
	}
	return t, ok, nil
}

// List returns the IDs of every stored document.
func (l *Library) List(ctx context.Context) ([]ID, error) {
	paths, err := l.blobs.List(ctx, l.root)
	if err != nil {
		return nil, fmt.Errorf("%w: list library: %v", internalerr.ErrStorage, err)
	}
	prefix := string(l.root) + "/"
	var out []ID
	for _, p := range paths {
		s := string(p)
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		raw, err := url.PathUnescape(s[len(prefix):])
		if err != nil {
			return nil, fmt.Errorf("%w: library path %s: %v", internalerr.ErrCodec, p, err)
		}
		out = append(out, ID(raw))
	}
	return out, nil
}

func storageErr(id ID, err error) error {
	if errors.Is(err, internalerr.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: document %s: %v", internalerr.ErrStorage, id, err)
}
