package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. It backs tests and the DOCSTORE=memory dev mode.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]*memDoc
	seq         int64
	subs        map[*memSub]struct{}
	failures    map[string]error
	writes      map[string]int
	Now         func() time.Time
}

type memDoc struct {
	seq  int64
	data map[string]any
}

type memSub struct {
	path   string
	notify chan struct{}
	errc   chan error
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		collections: map[string]map[string]*memDoc{},
		subs:        map[*memSub]struct{}{},
		failures:    map[string]error{},
		writes:      map[string]int{},
		Now:         time.Now,
	}
}

// Operation names accepted by FailNext and Writes.
const (
	OpSubscribe = "subscribe"
	OpGet       = "get"
	OpAdd       = "add"
	OpSet       = "set"
	OpUpdate    = "update"
	OpDelete    = "delete"
)

// FailNext makes the next call of op return err.
func (m *Memory) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// Writes returns how many successful calls of op have been made.
func (m *Memory) Writes(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[op]
}

// BreakSubscriptions ends every live watch on path with err.
func (m *Memory) BreakSubscriptions(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		if sub.path != path {
			continue
		}
		select {
		case sub.errc <- err:
		default:
		}
	}
}

// Subscribers returns the number of live watches on path.
func (m *Memory) Subscribers(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for sub := range m.subs {
		if sub.path == path {
			n++
		}
	}
	return n
}

func (m *Memory) takeFailure(op string) error {
	err, ok := m.failures[op]
	if !ok {
		return nil
	}
	delete(m.failures, op)
	return err
}

func (m *Memory) Subscribe(ctx context.Context, q Query) (*Feed, error) {
	m.mu.Lock()
	if err := m.takeFailure(OpSubscribe); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	sub := &memSub{
		path:   q.Path,
		notify: make(chan struct{}, 1),
		errc:   make(chan error, 1),
	}
	sub.notify <- struct{}{}
	m.subs[sub] = struct{}{}
	m.mu.Unlock()

	next := func(ctx context.Context) (Snapshot, error) {
		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case err := <-sub.errc:
			return Snapshot{}, err
		case <-sub.notify:
		}
		return m.snapshot(q), nil
	}
	cleanup := func() {
		m.mu.Lock()
		delete(m.subs, sub)
		m.mu.Unlock()
	}
	return NewFeed(ctx, next, cleanup), nil
}

func (m *Memory) snapshot(q Query) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll := m.collections[q.Path]
	type entry struct {
		id  string
		doc *memDoc
	}
	entries := make([]entry, 0, len(coll))
	for id, doc := range coll {
		entries = append(entries, entry{id: id, doc: doc})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if q.OrderBy != "" {
			if c := compareValues(a.doc.data[q.OrderBy], b.doc.data[q.OrderBy]); c != 0 {
				if q.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		return a.doc.seq < b.doc.seq
	})
	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, Document{ID: e.id, Data: copyData(e.doc.data)})
	}
	return Snapshot{Docs: docs, ReadTime: m.Now()}
}

func (m *Memory) Get(ctx context.Context, path, id string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpGet); err != nil {
		return nil, err
	}
	doc, ok := m.collections[path][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Data: copyData(doc.data)}, nil
}

func (m *Memory) Add(ctx context.Context, path string, fields map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpAdd); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.put(path, id, ResolveTimestamps(fields, m.Now()))
	m.writes[OpAdd]++
	m.notify(path)
	return id, nil
}

func (m *Memory) Set(ctx context.Context, path, id string, fields map[string]any, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpSet); err != nil {
		return err
	}
	fields = ResolveTimestamps(fields, m.Now())
	if existing, ok := m.collections[path][id]; ok && merge {
		for k, v := range fields {
			existing.data[k] = v
		}
	} else {
		m.put(path, id, fields)
	}
	m.writes[OpSet]++
	m.notify(path)
	return nil
}

func (m *Memory) Update(ctx context.Context, path, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpUpdate); err != nil {
		return err
	}
	existing, ok := m.collections[path][id]
	if !ok {
		return fmt.Errorf("update %s/%s: %w", path, id, ErrNotFound)
	}
	for k, v := range ResolveTimestamps(fields, m.Now()) {
		existing.data[k] = v
	}
	m.writes[OpUpdate]++
	m.notify(path)
	return nil
}

func (m *Memory) Delete(ctx context.Context, path, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpDelete); err != nil {
		return err
	}
	delete(m.collections[path], id)
	m.writes[OpDelete]++
	m.notify(path)
	return nil
}

func (m *Memory) put(path, id string, fields map[string]any) {
	coll, ok := m.collections[path]
	if !ok {
		coll = map[string]*memDoc{}
		m.collections[path] = coll
	}
	m.seq++
	coll[id] = &memDoc{seq: m.seq, data: copyData(fields)}
}

func (m *Memory) notify(path string) {
	for sub := range m.subs {
		if sub.path != path {
			continue
		}
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	return 0
}
