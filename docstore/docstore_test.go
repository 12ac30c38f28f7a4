package docstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func receive(t *testing.T, f *Feed) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-f.Snapshots():
		if !ok {
			t.Fatalf("feed closed unexpectedly: %v", f.Err())
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestMemorySubscribeDeliversCurrentThenChanges(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := m.Add(ctx, "users/u1/closet", map[string]any{"category": "Tops"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	feed, err := m.Subscribe(ctx, Query{Path: "users/u1/closet"})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer feed.Stop()

	if snap := receive(t, feed); len(snap.Docs) != 1 {
		t.Fatalf("initial snapshot has %d docs, want 1", len(snap.Docs))
	}

	if _, err := m.Add(ctx, "users/u1/closet", map[string]any{"category": "Bottoms"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if snap := receive(t, feed); len(snap.Docs) != 2 {
		t.Errorf("second snapshot has %d docs, want 2", len(snap.Docs))
	}
}

func TestMemoryOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"old", "new", "mid"} {
		offset := map[string]time.Duration{"old": 0, "mid": time.Hour, "new": 2 * time.Hour}[name]
		if err := m.Set(ctx, "marketplace", name, map[string]any{"createdAt": base.Add(offset), "n": i}, false); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	snap := m.snapshot(Query{Path: "marketplace", OrderBy: "createdAt", Descending: true})
	got := []string{snap.Docs[0].ID, snap.Docs[1].ID, snap.Docs[2].ID}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestMemorySetMerge(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "p", "d", map[string]any{"a": 1, "b": 2}, false)
	_ = m.Set(ctx, "p", "d", map[string]any{"b": 3}, true)
	doc, err := m.Get(ctx, "p", "d")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Data["a"] != 1 || doc.Data["b"] != 3 {
		t.Errorf("merged data = %v", doc.Data)
	}
	_ = m.Set(ctx, "p", "d", map[string]any{"c": 4}, false)
	doc, _ = m.Get(ctx, "p", "d")
	if _, ok := doc.Data["a"]; ok {
		t.Errorf("non-merge Set kept sibling field: %v", doc.Data)
	}
}

func TestMemoryUpdateMissing(t *testing.T) {
	m := NewMemory()
	err := m.Update(context.Background(), "p", "missing", map[string]any{"a": 1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
	if _, err := m.Get(context.Background(), "p", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestServerTimestampResolved(t *testing.T) {
	m := NewMemory()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return fixed }
	id, err := m.Add(context.Background(), "p", map[string]any{"createdAt": ServerTimestamp})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	doc, _ := m.Get(context.Background(), "p", id)
	if got, ok := doc.Data["createdAt"].(time.Time); !ok || !got.Equal(fixed) {
		t.Errorf("createdAt = %v, want %v", doc.Data["createdAt"], fixed)
	}
}

func TestFeedStopIsIdempotentAndReleases(t *testing.T) {
	m := NewMemory()
	feed, err := m.Subscribe(context.Background(), Query{Path: "p"})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	receive(t, feed)
	feed.Stop()
	feed.Stop()
	if n := m.Subscribers("p"); n != 0 {
		t.Errorf("Subscribers() = %d after Stop, want 0", n)
	}
	if feed.Err() != nil {
		t.Errorf("Err() = %v after Stop, want nil", feed.Err())
	}
}

func TestFeedReportsSubscriptionError(t *testing.T) {
	m := NewMemory()
	feed, _ := m.Subscribe(context.Background(), Query{Path: "p"})
	receive(t, feed)
	boom := errors.New("permission denied")
	m.BreakSubscriptions("p", boom)
	for range feed.Snapshots() {
	}
	if !errors.Is(feed.Err(), boom) {
		t.Errorf("Err() = %v, want %v", feed.Err(), boom)
	}
	feed.Stop()
}

func TestDecode(t *testing.T) {
	type item struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Price    int64  `json:"price"`
	}
	got, err := Decode[item](Document{ID: "abc", Data: map[string]any{"category": "Tops", "price": 500}})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := item{ID: "abc", Category: "Tops", Price: 500}
	if got != want {
		t.Errorf("Decode() = %+v, want %+v", got, want)
	}
}
