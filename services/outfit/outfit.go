package outfit

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/structs"

	"styleSphere/docstore"
	"styleSphere/generator"
	"styleSphere/models"
	"styleSphere/services/session"
)

type Service interface {
	// Save stores a snapshot of items as a named outfit. An empty name gets
	// a generated one.
	Save(ctx context.Context, items []models.ClosetItem, name string) (*models.SavedOutfit, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	session session.Service
	store   docstore.Store
}

var _ Service = (*service)(nil)

func NewService(sess session.Service, store docstore.Store) Service {
	return &service{
		session: sess,
		store:   store,
	}
}

func (s *service) userID() (string, error) {
	current := s.session.Current()
	if s.store == nil || !current.Authenticated() {
		return "", fmt.Errorf("saving outfits requires a signed in user: %w", models.ErrNoIdentity)
	}
	return current.UserID, nil
}

func (s *service) Save(ctx context.Context, items []models.ClosetItem, name string) (*models.SavedOutfit, error) {
	outfit := models.SavedOutfit{Name: name}
	for _, item := range items {
		outfit.Items = append(outfit.Items, item.Snapshot())
	}
	if !outfit.Complete() {
		return nil, models.Invalid("an outfit needs one item from each of %v", models.RequiredCategories)
	}
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	if outfit.Name == "" {
		outfit.Name = generator.OutfitName()
	}

	snapshots := make([]any, 0, len(outfit.Items))
	for _, item := range outfit.Items {
		snapshots = append(snapshots, structs.Map(item))
	}
	id, err := s.store.Add(ctx, models.SavedOutfitsPath(userID), map[string]any{
		"name":      outfit.Name,
		"items":     snapshots,
		"createdAt": docstore.ServerTimestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save outfit: %w", err)
	}
	outfit.ID = id
	return &outfit, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	userID, err := s.userID()
	if err != nil {
		return err
	}
	path := models.SavedOutfitsPath(userID)
	if _, err := s.store.Get(ctx, path, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%w: outfit %s", models.ErrNotFound, id)
		}
		return err
	}
	if err := s.store.Delete(ctx, path, id); err != nil {
		return fmt.Errorf("failed to delete outfit %s: %w", id, err)
	}
	return nil
}
