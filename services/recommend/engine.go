package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"styleSphere/docstore"
	"styleSphere/models"
)

// Engine writes the recommendation document for a user whenever the
// fingerprint of their closet differs from the last one persisted.
type Engine struct {
	store docstore.Store

	mu   sync.Mutex
	rng  *rand.Rand
	last map[string]string
}

func NewEngine(store docstore.Store, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		store: store,
		rng:   rng,
		last:  map[string]string{},
	}
}

// Trigger reports whether a new recommendation set was written. It does
// nothing without an identity or when any required category is empty.
func (e *Engine) Trigger(ctx context.Context, userID string, items []models.ClosetItem) (bool, error) {
	if userID == "" || e.store == nil {
		return false, nil
	}
	fingerprint := Fingerprint(items)

	e.mu.Lock()
	defer e.mu.Unlock()
	if last, ok := e.last[userID]; ok && last == fingerprint {
		return false, nil
	}
	combos := Generate(items, e.rng)
	if len(combos) == 0 {
		return false, nil
	}

	err := e.store.Set(ctx, models.RecommendationsPath(userID), models.RecommendationsDocID, map[string]any{
		"combos":      combosField(combos),
		"fingerprint": fingerprint,
		"computedAt":  docstore.ServerTimestamp,
	}, true)
	if err != nil {
		slog.With("error", err.Error()).Error("failed to persist recommendations", "userId", userID)
		return false, fmt.Errorf("failed to persist recommendations: %w", err)
	}
	e.last[userID] = fingerprint
	slog.Debug("recommendations updated", "userId", userID, "combos", len(combos))
	return true, nil
}

// Observe seeds the guard from the persisted document so a restart with an
// unchanged closet does not rewrite it.
func (e *Engine) Observe(userID string, set *models.RecommendedOutfitSet) {
	if userID == "" || set == nil || set.Fingerprint == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.last[userID]; !ok {
		e.last[userID] = set.Fingerprint
	}
}
