package memblob

import (
	"context"
	"testing"
	"time"

	"github.com/cognicore/loredb/pkg/lore/blob"
	"github.com/cognicore/loredb/pkg/lore/blob/blobtest"
)

func TestContract(t *testing.T) {
	blobtest.Run(t, New())
}

func TestLoadCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	path := blob.Path("p")
	if err := s.Save(ctx, path, []byte("abc")); err != nil {
		t.Fatal(err)
	}

	got, _, err := s.Load(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	got[0] = 'x'

	again, _, err := s.Load(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != "abc" {
		t.Fatalf("stored bytes mutated through a returned slice: %q", again)
	}
}

func TestClockDrivesLastModified(t *testing.T) {
	ctx := context.Background()
	s := New()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	path := blob.Path("p")
	if err := s.Save(ctx, path, []byte("x")); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.LastModified(ctx, path)
	if err != nil || !ok {
		t.Fatalf("LastModified = (ok=%v, %v)", ok, err)
	}
	if !got.Equal(fixed) {
		t.Fatalf("LastModified = %v, want %v", got, fixed)
	}
}
