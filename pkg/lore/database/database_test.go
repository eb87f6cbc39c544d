package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cognicore/loredb/pkg/lore/blob"
	"github.com/cognicore/loredb/pkg/lore/blob/memblob"
	"github.com/cognicore/loredb/pkg/lore/chain"
	"github.com/cognicore/loredb/pkg/lore/internalerr"
	"github.com/cognicore/loredb/pkg/lore/model"
)

// countingStore wraps a backend and counts calls, optionally slowing loads
// down so concurrent callers overlap.
type countingStore struct {
	blob.Store
	loads   atomic.Int64
	saves   atomic.Int64
	deletes atomic.Int64
	delay   time.Duration
}

func (s *countingStore) Load(ctx context.Context, path blob.Path) ([]byte, bool, error) {
	s.loads.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.Store.Load(ctx, path)
}

func (s *countingStore) Save(ctx context.Context, path blob.Path, data []byte) error {
	s.saves.Add(1)
	return s.Store.Save(ctx, path, data)
}

func (s *countingStore) Delete(ctx context.Context, path blob.Path) error {
	s.deletes.Add(1)
	return s.Store.Delete(ctx, path)
}

// failingStore errors on everything.
type failingStore struct {
	blob.Store
	err error
}

func (s *failingStore) Load(ctx context.Context, path blob.Path) ([]byte, bool, error) {
	return nil, false, s.err
}

func (s *failingStore) Save(ctx context.Context, path blob.Path, data []byte) error {
	return s.err
}

func (s *failingStore) Delete(ctx context.Context, path blob.Path) error {
	return s.err
}

var testKey = chain.From(model.Text("hello", "noun"))

func TestPathFor(t *testing.T) {
	d := New(memblob.New(), Config{})
	if got := d.PathFor(chain.Start); got != "database/start" {
		t.Errorf("PathFor(Start) = %q", got)
	}
	if got := d.PathFor(testKey); got != "database/text/noun/hello" {
		t.Errorf("PathFor = %q", got)
	}
	d = New(memblob.New(), Config{Root: "model"})
	if got := d.PathFor(chain.Start); got != "model/start" {
		t.Errorf("PathFor with custom root = %q", got)
	}
}

func TestLoadAbsent(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: memblob.New()}
	d := New(backend, Config{})

	table, ok, err := d.Load(ctx, testKey)
	if err != nil || ok || table != nil {
		t.Fatalf("Load of absent key = (%v, %v, %v)", table, ok, err)
	}

	// Absence is cached too: the second load must not hit the backend.
	if _, ok, err := d.Load(ctx, testKey); err != nil || ok {
		t.Fatalf("second Load = (ok=%v, %v)", ok, err)
	}
	if n := backend.loads.Load(); n != 1 {
		t.Fatalf("backend loads = %d, want 1", n)
	}
}

func TestSaveLoadAndCaching(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: memblob.New()}
	d := New(backend, Config{})

	want := chain.Table{chain.End: 3}
	if err := d.Save(ctx, testKey, want); err != nil {
		t.Fatal(err)
	}

	got, ok, err := d.Load(ctx, testKey)
	if err != nil || !ok {
		t.Fatalf("Load = (ok=%v, %v)", ok, err)
	}
	if !got.Equal(want) {
		t.Fatalf("Load = %v, want %v", got, want)
	}

	// Mutating the returned table must not leak into the cache.
	got[chain.End] = 99
	again, _, err := d.Load(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Equal(want) {
		t.Fatalf("cached table mutated through a returned copy: %v", again)
	}

	if n := backend.loads.Load(); n != 1 {
		t.Fatalf("backend loads = %d, want 1 (cache must serve the repeat)", n)
	}
}

func TestSaveInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: memblob.New()}
	d := New(backend, Config{})

	if err := d.Save(ctx, testKey, chain.Table{chain.End: 1}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := d.Load(ctx, testKey); err != nil {
		t.Fatal(err)
	}

	if err := d.Save(ctx, testKey, chain.Table{chain.End: 2}); err != nil {
		t.Fatal(err)
	}
	got, _, err := d.Load(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if got[chain.End] != 2 {
		t.Fatalf("Load after save = %v, want count 2", got)
	}
	if n := backend.loads.Load(); n != 2 {
		t.Fatalf("backend loads = %d, want 2 (save must invalidate)", n)
	}
}

func TestDeleteInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: memblob.New()}
	d := New(backend, Config{})

	if err := d.Save(ctx, testKey, chain.Table{chain.End: 1}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := d.Load(ctx, testKey); err != nil {
		t.Fatal(err)
	}

	if err := d.Delete(ctx, testKey); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := d.Load(ctx, testKey); err != nil || ok {
		t.Fatalf("Load after delete = (ok=%v, %v), want absent", ok, err)
	}
}

func TestSaveRejectsInvalidTable(t *testing.T) {
	d := New(memblob.New(), Config{})
	err := d.Save(context.Background(), testKey, chain.Table{})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("Save of empty table = %v, want ErrInvalidInput", err)
	}
}

func TestSingleFlight(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: memblob.New(), delay: 50 * time.Millisecond}
	d := New(backend, Config{})

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = d.Load(ctx, testKey)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if n := backend.loads.Load(); n != 1 {
		t.Fatalf("backend loads = %d, want 1 (concurrent loads must share one fetch)", n)
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: memblob.New()}
	d := New(backend, Config{CacheTTL: 20 * time.Millisecond})

	if err := d.Save(ctx, testKey, chain.Table{chain.End: 1}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := d.Load(ctx, testKey); err != nil {
		t.Fatal(err)
	}

	time.Sleep(80 * time.Millisecond)

	if _, _, err := d.Load(ctx, testKey); err != nil {
		t.Fatal(err)
	}
	if n := backend.loads.Load(); n != 2 {
		t.Fatalf("backend loads = %d, want 2 (entry must expire)", n)
	}
}

func TestLoadCodecFailure(t *testing.T) {
	ctx := context.Background()
	backend := memblob.New()
	d := New(backend, Config{})

	if err := backend.Save(ctx, d.PathFor(testKey), []byte("not json")); err != nil {
		t.Fatal(err)
	}
	_, _, err := d.Load(ctx, testKey)
	if !errors.Is(err, internalerr.ErrCodec) {
		t.Fatalf("Load of garbage = %v, want ErrCodec", err)
	}
}

func TestStorageFailure(t *testing.T) {
	ctx := context.Background()
	d := New(&failingStore{err: errors.New("backend down")}, Config{})

	if _, _, err := d.Load(ctx, testKey); !errors.Is(err, internalerr.ErrStorage) {
		t.Fatalf("Load = %v, want ErrStorage", err)
	}
	if err := d.Save(ctx, testKey, chain.Table{chain.End: 1}); !errors.Is(err, internalerr.ErrStorage) {
		t.Fatalf("Save = %v, want ErrStorage", err)
	}
	if err := d.Delete(ctx, testKey); !errors.Is(err, internalerr.ErrStorage) {
		t.Fatalf("Delete = %v, want ErrStorage", err)
	}
}

func TestLoadErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	failing := &failingStore{err: errors.New("backend down")}
	backend := &countingStore{Store: failing}
	d := New(backend, Config{})

	if _, _, err := d.Load(ctx, testKey); err == nil {
		t.Fatal("expected error")
	}

	// Once the backend recovers the next load must go through.
	failing.Store = memblob.New()
	failing.err = nil
	if _, ok, err := d.Load(ctx, testKey); err != nil || ok {
		t.Fatalf("Load after recovery = (ok=%v, %v)", ok, err)
	}
}
