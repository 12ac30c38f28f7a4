package docstore

import (
	"context"
	"sync"
)

// NextFunc blocks until the next full snapshot is available.
type NextFunc func(ctx context.Context) (Snapshot, error)

// Feed is a live stream of full snapshots for one query.
type Feed struct {
	ch     chan Snapshot
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

// NewFeed starts a producer goroutine that calls next until it fails or the
// feed is stopped. cleanup runs on the producer goroutine once it exits.
func NewFeed(ctx context.Context, next NextFunc, cleanup func()) *Feed {
	ctx, cancel := context.WithCancel(ctx)
	f := &Feed{
		ch:     make(chan Snapshot, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go f.run(ctx, next, cleanup)
	return f
}

func (f *Feed) run(ctx context.Context, next NextFunc, cleanup func()) {
	defer close(f.done)
	defer close(f.ch)
	if cleanup != nil {
		defer cleanup()
	}
	for {
		snap, err := next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				f.mu.Lock()
				f.err = err
				f.mu.Unlock()
			}
			return
		}
		select {
		case f.ch <- snap:
		case <-ctx.Done():
			return
		}
	}
}

// Snapshots is closed when the feed ends, after which Err reports why.
func (f *Feed) Snapshots() <-chan Snapshot {
	return f.ch
}

// Err returns the error that ended the feed, or nil if it was stopped.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Stop ends the feed and waits for the producer to exit. Safe to call more
// than once.
func (f *Feed) Stop() {
	f.once.Do(f.cancel)
	<-f.done
}
