// Package mirror keeps live watches on the remote collections of the active
// session and folds their snapshots into a single view.
package mirror

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"styleSphere/clients/storage"
	"styleSphere/docstore"
	"styleSphere/models"
	"styleSphere/utils"
)

// LocalClosetKey is the local fallback store slot holding the closet list.
const LocalClosetKey = "local_closet_items"

// Key identifies one watch. Owner is empty for global collections.
type Key struct {
	Collection string
	Owner      string
}

func (k Key) Path() string {
	if k.Owner == "" {
		return k.Collection
	}
	return models.UserCollectionPath(k.Owner, k.Collection)
}

type (
	ClosetHook          func(userID string, items []models.ClosetItem)
	RecommendationsHook func(userID string, set *models.RecommendedOutfitSet)
)

type Service interface {
	// Subscribe starts the single watch for key, replacing any existing one.
	Subscribe(ctx context.Context, key Key, onChange func([]docstore.Document)) error
	// Unsubscribe stops the watch for key and waits for its callbacks to
	// finish. Unknown keys are ignored.
	Unsubscribe(key Key)
	Release()
	// Bind switches the per-user watches to userID. An empty userID selects
	// local mode.
	Bind(ctx context.Context, userID string) error
	ApplyLocalCloset(items []models.ClosetItem)
	View() View
	// Listen streams the view after every change. Call the returned func to stop.
	Listen() (<-chan View, func())
	OnCloset(fn ClosetHook)
	OnRecommendations(fn RecommendationsHook)
}

type watch struct {
	feed    *docstore.Feed
	done    chan struct{}
	stopped atomic.Bool
}

type service struct {
	store docstore.Store
	local storage.Store

	// subMu serializes watch lifecycle changes.
	subMu   sync.Mutex
	watches map[Key]*watch

	mu        sync.Mutex
	view      View
	listeners map[chan View]struct{}
	closetFns []ClosetHook
	recsFns   []RecommendationsHook
}

var _ Service = (*service)(nil)

// NewService builds the mirror. store is nil when no remote service is
// configured.
func NewService(store docstore.Store, local storage.Store) Service {
	return &service{
		store:     store,
		local:     local,
		watches:   map[Key]*watch{},
		view:      View{Local: true},
		listeners: map[chan View]struct{}{},
	}
}

func (s *service) Subscribe(ctx context.Context, key Key, onChange func([]docstore.Document)) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return s.subscribe(ctx, key, onChange)
}

func (s *service) subscribe(ctx context.Context, key Key, onChange func([]docstore.Document)) error {
	if s.store == nil {
		return models.ErrNoIdentity
	}
	s.unsubscribe(key)

	q := docstore.Query{Path: key.Path(), OrderBy: "createdAt", Descending: true}
	if key.Collection == models.RecommendationsCollection {
		q.OrderBy = ""
		q.Descending = false
	}
	feed, err := s.store.Subscribe(context.WithoutCancel(ctx), q)
	if err != nil {
		slog.With("error", err.Error()).Error("failed to subscribe", "path", q.Path)
		return err
	}
	w := &watch{feed: feed, done: make(chan struct{})}
	s.watches[key] = w

	go func() {
		defer close(w.done)
		for snap := range feed.Snapshots() {
			if w.stopped.Load() {
				continue
			}
			onChange(snap.Docs)
		}
		if err := feed.Err(); err != nil {
			slog.With("error", err.Error()).Error("subscription ended, keeping last known view", "path", q.Path)
		}
	}()
	return nil
}

func (s *service) Unsubscribe(key Key) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.unsubscribe(key)
}

func (s *service) unsubscribe(key Key) {
	w, ok := s.watches[key]
	if !ok {
		return
	}
	delete(s.watches, key)
	w.stopped.Store(true)
	w.feed.Stop()
	<-w.done
}

func (s *service) Release() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for key := range s.watches {
		s.unsubscribe(key)
	}
}

func (s *service) Bind(ctx context.Context, userID string) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for key := range s.watches {
		if key.Owner != "" {
			s.unsubscribe(key)
		}
	}

	local := userID == "" || s.store == nil
	s.update(func(v *View) {
		v.UserID = userID
		v.Local = local
		v.Closet = nil
		v.SavedOutfits = nil
		v.Recommendations = nil
	})

	if s.store != nil {
		marketplace := Key{Collection: models.MarketplaceCollection}
		if _, ok := s.watches[marketplace]; !ok {
			if err := s.subscribe(ctx, marketplace, s.applyMarketplace); err != nil {
				return err
			}
		}
	}

	if local {
		var items []models.ClosetItem
		if _, err := storage.LoadJSON(s.local, LocalClosetKey, &items); err != nil {
			slog.With("error", err.Error()).Error("failed to load local closet")
		}
		s.ApplyLocalCloset(items)
		return nil
	}

	subs := []struct {
		collection string
		apply      func(string, []docstore.Document)
	}{
		{models.ClosetCollection, s.applyCloset},
		{models.SavedOutfitsCollection, s.applySavedOutfits},
		{models.RecommendationsCollection, s.applyRecommendations},
	}
	for _, sub := range subs {
		apply := sub.apply
		err := s.subscribe(ctx, Key{Collection: sub.collection, Owner: userID}, func(docs []docstore.Document) {
			apply(userID, docs)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyLocalCloset shows the local closet list. It is ignored while the
// closet is mirrored from the remote store.
func (s *service) ApplyLocalCloset(items []models.ClosetItem) {
	var userID string
	applied := s.apply(func(v *View) bool {
		if !v.Local {
			return false
		}
		v.Closet = append([]models.ClosetItem(nil), items...)
		userID = v.UserID
		return true
	})
	if applied {
		s.fireCloset(userID)
	}
}

func (s *service) applyCloset(userID string, docs []docstore.Document) {
	items, errs := utils.DecodeAll[models.ClosetItem](docs)
	logSkipped(models.ClosetCollection, errs)
	if s.updateFor(userID, func(v *View) { v.Closet = items }) {
		s.fireCloset(userID)
	}
}

func (s *service) applySavedOutfits(userID string, docs []docstore.Document) {
	outfits, errs := utils.DecodeAll[models.SavedOutfit](docs)
	logSkipped(models.SavedOutfitsCollection, errs)
	s.updateFor(userID, func(v *View) { v.SavedOutfits = outfits })
}

func (s *service) applyRecommendations(userID string, docs []docstore.Document) {
	var current *models.RecommendedOutfitSet
	for _, doc := range docs {
		if doc.ID != models.RecommendationsDocID {
			continue
		}
		set, errs := utils.DecodeAll[models.RecommendedOutfitSet]([]docstore.Document{doc})
		logSkipped(models.RecommendationsCollection, errs)
		if len(set) == 1 {
			current = &set[0]
		}
	}
	if !s.updateFor(userID, func(v *View) { v.Recommendations = current }) {
		return
	}
	s.mu.Lock()
	hooks := append([]RecommendationsHook(nil), s.recsFns...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(userID, current)
	}
}

func (s *service) applyMarketplace(docs []docstore.Document) {
	listings, errs := utils.DecodeAll[models.Listing](docs)
	logSkipped(models.MarketplaceCollection, errs)
	s.update(func(v *View) { v.Marketplace = listings })
}

func (s *service) fireCloset(userID string) {
	s.mu.Lock()
	items := s.view.MyCloset()
	hooks := append([]ClosetHook(nil), s.closetFns...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(userID, items)
	}
}

// updateFor applies fn only while userID is still the bound identity.
func (s *service) updateFor(userID string, fn func(v *View)) bool {
	return s.apply(func(v *View) bool {
		if v.UserID != userID {
			return false
		}
		fn(v)
		return true
	})
}

func (s *service) update(fn func(v *View)) bool {
	return s.apply(func(v *View) bool {
		fn(v)
		return true
	})
}

func (s *service) apply(fn func(v *View) bool) bool {
	s.mu.Lock()
	if !fn(&s.view) {
		s.mu.Unlock()
		return false
	}
	s.view.Version++
	snapshot := s.view.clone()
	for ch := range s.listeners {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
	s.mu.Unlock()
	return true
}

func (s *service) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.clone()
}

func (s *service) Listen() (<-chan View, func()) {
	ch := make(chan View, 1)
	s.mu.Lock()
	s.listeners[ch] = struct{}{}
	ch <- s.view.clone()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, ch)
			s.mu.Unlock()
		})
	}
}

func (s *service) OnCloset(fn ClosetHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closetFns = append(s.closetFns, fn)
}

func (s *service) OnRecommendations(fn RecommendationsHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recsFns = append(s.recsFns, fn)
}

func logSkipped(collection string, errs []error) {
	for _, err := range errs {
		slog.With("error", err.Error()).Warn("skipping invalid document", "collection", collection)
	}
}
