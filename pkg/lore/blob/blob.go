// Package blob defines the path-addressed blob storage contract the engine
// persists into. Backends live in the memblob, fsblob and sqliteblob
// subpackages and are interchangeable.
package blob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/loredb/pkg/lore/internalerr"
)

// Path addresses one blob. A valid path is non-empty, slash-separated,
// carries no leading or trailing slash and no empty, "." or ".." segment.
type Path string

// NewPath validates raw and returns it as a Path.
func NewPath(raw string) (Path, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty path", internalerr.ErrInvalidInput)
	}
	if strings.HasPrefix(raw, "/") || strings.HasSuffix(raw, "/") {
		return "", fmt.Errorf("%w: path %q has a leading or trailing slash", internalerr.ErrInvalidInput, raw)
	}
	for _, seg := range strings.Split(raw, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: path %q has segment %q", internalerr.ErrInvalidInput, raw, seg)
		}
	}
	return Path(raw), nil
}

// Join appends segments to the path. Segments must already be escaped.
func (p Path) Join(segments ...string) Path {
	parts := append([]string{string(p)}, segments...)
	return Path(strings.Join(parts, "/"))
}

// HasPrefix reports whether the path lies under prefix (or equals it).
func (p Path) HasPrefix(prefix Path) bool {
	return p == prefix || strings.HasPrefix(string(p), string(prefix)+"/")
}

func (p Path) String() string { return string(p) }

// Store is the path-addressed backend contract. Implementations must be safe
// for concurrent use. Absence is reported through the boolean results, never
// through an error.
type Store interface {
	// Exists reports whether a blob is stored at the path.
	Exists(ctx context.Context, path Path) (bool, error)

	// LastModified returns the time a blob was last written, with false
	// when the path is absent.
	LastModified(ctx context.Context, path Path) (time.Time, bool, error)

	// Load returns the blob's bytes, with false when the path is absent.
	Load(ctx context.Context, path Path) ([]byte, bool, error)

	// Save writes the blob, replacing any previous content.
	Save(ctx context.Context, path Path, data []byte) error

	// Delete removes the blob. Deleting an absent path is not an error.
	Delete(ctx context.Context, path Path) error

	// List returns every stored path under prefix, in unspecified order.
	List(ctx context.Context, prefix Path) ([]Path, error)
}
