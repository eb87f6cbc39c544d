// Package blobtest holds the contract test suite every blob.Store backend
// must pass.
package blobtest

import (
	"bytes"
	"context"
	"sort"
	"testing"

	"github.com/cognicore/loredb/pkg/lore/blob"
)

// Run exercises the full blob.Store contract against a fresh, empty store.
func Run(t *testing.T, store blob.Store) {
	t.Helper()
	ctx := context.Background()

	path := blob.Path("database/text/noun/hello")
	other := blob.Path("database/start")
	outside := blob.Path("library/doc")

	// Absent path behaviors
	if ok, err := store.Exists(ctx, path); err != nil || ok {
		t.Fatalf("Exists on empty store = (%v, %v), want (false, nil)", ok, err)
	}
	if _, ok, err := store.Load(ctx, path); err != nil || ok {
		t.Fatalf("Load on empty store = (ok=%v, %v), want (false, nil)", ok, err)
	}
	if _, ok, err := store.LastModified(ctx, path); err != nil || ok {
		t.Fatalf("LastModified on empty store = (ok=%v, %v), want (false, nil)", ok, err)
	}
	if err := store.Delete(ctx, path); err != nil {
		t.Fatalf("Delete of absent path: %v", err)
	}

	// Save then read back
	want := []byte(`[[[],1]]`)
	if err := store.Save(ctx, path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ok, err := store.Exists(ctx, path); err != nil || !ok {
		t.Fatalf("Exists after save = (%v, %v), want (true, nil)", ok, err)
	}
	got, ok, err := store.Load(ctx, path)
	if err != nil || !ok {
		t.Fatalf("Load after save = (ok=%v, %v)", ok, err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Load = %q, want %q", got, want)
	}
	if _, ok, err := store.LastModified(ctx, path); err != nil || !ok {
		t.Fatalf("LastModified after save = (ok=%v, %v), want present", ok, err)
	}

	// Overwrite replaces content
	want2 := []byte(`[[[],2]]`)
	if err := store.Save(ctx, path, want2); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, _, err = store.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load after overwrite: %v", err)
	}
	if !bytes.Equal(got, want2) {
		t.Fatalf("Load after overwrite = %q, want %q", got, want2)
	}

	// List honors the prefix
	if err := store.Save(ctx, other, []byte("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, outside, []byte("y")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	listed, err := store.List(ctx, blob.Path("database"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i] < listed[j] })
	if len(listed) != 2 || listed[0] != other || listed[1] != path {
		t.Fatalf("List(database) = %v, want [%s %s]", listed, other, path)
	}

	// Delete removes
	if err := store.Delete(ctx, path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, err := store.Exists(ctx, path); err != nil || ok {
		t.Fatalf("Exists after delete = (%v, %v), want (false, nil)", ok, err)
	}
	listed, err = store.List(ctx, blob.Path("database"))
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(listed) != 1 || listed[0] != other {
		t.Fatalf("List after delete = %v, want [%s]", listed, other)
	}
}
