package assetpool

import (
	"testing"
	"time"

	"github.com/lattice3d/assetstream/pkg/asset"
)

func newEntry(key string, size uint64, disposed *[]string) *asset.Entry {
	return &asset.Entry{
		Key:      key,
		Type:     asset.TypeModel,
		Size:     size,
		LastUsed: time.Now(),
		Payload:  key + "-payload",
		Disposer: asset.DisposerFunc(func(any) {
			if disposed != nil {
				*disposed = append(*disposed, key)
			}
		}),
	}
}

func TestAddAndRetrieve_RoundTrip(t *testing.T) {
	p := New(Config{Capacity: 1000}, nil)

	e := newEntry("tex/wall", 100, nil)
	payload := e.Payload

	if !p.Add(e) {
		t.Fatal("Add failed")
	}
	if !e.Pooled {
		t.Error("expected pooled flag set after Add")
	}
	if !p.Has("tex/wall") {
		t.Error("expected Has to report pooled entry")
	}

	got := p.Retrieve("tex/wall")
	if got == nil {
		t.Fatal("Retrieve returned nil")
	}
	if got.Payload != payload {
		t.Error("expected identical payload handle after round trip")
	}
	if got.Pooled {
		t.Error("expected pooled flag cleared after Retrieve")
	}
	if p.Has("tex/wall") {
		t.Error("expected entry removed from pool after Retrieve")
	}
	if p.Size() != 0 {
		t.Errorf("expected size 0, got %d", p.Size())
	}
}

func TestRetrieve_Missing(t *testing.T) {
	p := New(DefaultConfig(), nil)
	if p.Retrieve("nope") != nil {
		t.Error("expected nil for missing key")
	}
}

func TestAdd_EvictsLRUOnOverflow(t *testing.T) {
	var disposed []string
	p := New(Config{Capacity: 250}, nil)

	old := newEntry("old", 100, &disposed)
	old.LastUsed = time.Now().Add(-time.Minute)
	fresh := newEntry("fresh", 100, &disposed)

	p.Add(old)
	p.Add(fresh)

	// 100 over capacity: the LRU entry must be hard-disposed first.
	if !p.Add(newEntry("new", 100, &disposed)) {
		t.Fatal("Add should succeed after evicting LRU")
	}

	if p.Has("old") {
		t.Error("expected LRU entry evicted")
	}
	if !p.Has("fresh") || !p.Has("new") {
		t.Error("expected newer entries retained")
	}
	if len(disposed) != 1 || disposed[0] != "old" {
		t.Errorf("expected only 'old' disposed, got %v", disposed)
	}
}

func TestAdd_TieBreakByInsertionOrder(t *testing.T) {
	p := New(Config{Capacity: 200}, nil)

	ts := time.Unix(5000, 0)
	a := newEntry("a", 100, nil)
	b := newEntry("b", 100, nil)
	a.LastUsed = ts
	b.LastUsed = ts

	p.Add(a)
	p.Add(b)

	p.Add(newEntry("c", 100, nil))

	if p.Has("a") {
		t.Error("expected first-inserted entry evicted on timestamp tie")
	}
	if !p.Has("b") {
		t.Error("expected second-inserted entry retained")
	}
}

func TestAdd_RejectsOversized(t *testing.T) {
	var disposed []string
	p := New(Config{Capacity: 100}, nil)
	p.Add(newEntry("small", 50, &disposed))

	// 150 > capacity: must fail without touching residents.
	if p.Add(newEntry("huge", 150, nil)) {
		t.Fatal("expected Add to fail for entry larger than capacity")
	}
	if !p.Has("small") {
		t.Error("expected resident entry untouched by rejected Add")
	}
	if len(disposed) != 0 {
		t.Errorf("expected no disposals, got %v", disposed)
	}
}

func TestClear_DisposesEverything(t *testing.T) {
	var disposed []string
	p := New(Config{Capacity: 1000}, nil)
	p.Add(newEntry("a", 10, &disposed))
	p.Add(newEntry("b", 20, &disposed))

	p.Clear()

	if p.Len() != 0 || p.Size() != 0 {
		t.Errorf("expected empty pool, got len=%d size=%d", p.Len(), p.Size())
	}
	if len(disposed) != 2 {
		t.Errorf("expected both entries disposed, got %v", disposed)
	}
}

func TestDisposerPanic_Contained(t *testing.T) {
	p := New(Config{Capacity: 100}, nil)

	bad := &asset.Entry{
		Key:      "bad",
		Size:     100,
		LastUsed: time.Now().Add(-time.Hour),
		Disposer: asset.DisposerFunc(func(any) { panic("gpu driver crash") }),
	}
	p.Add(bad)

	// Overflow forces disposal of "bad"; the panic must not escape.
	if !p.Add(newEntry("good", 100, nil)) {
		t.Fatal("Add should succeed despite panicking disposer")
	}
	if !p.Has("good") {
		t.Error("expected new entry pooled")
	}
}

func TestGetStats(t *testing.T) {
	p := New(Config{Capacity: 500}, nil)
	p.Add(newEntry("a", 100, nil))
	p.Add(newEntry("b", 50, nil))

	stats := p.GetStats()
	if stats.Size != 150 || stats.Count != 2 || stats.Capacity != 500 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
