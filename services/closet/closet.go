// Package closet uploads, edits and deletes closet items. Items go to the
// remote store when an identity and remote services are available and to
// the local fallback store otherwise.
package closet

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fatih/structs"

	"styleSphere/clients/blob"
	"styleSphere/clients/storage"
	"styleSphere/docstore"
	"styleSphere/models"
	"styleSphere/services/mirror"
	"styleSphere/services/session"
)

const folderKind = "closet"

type Upload struct {
	Category models.Category
	Name     string
	Filename string
	Data     []byte
}

type Service interface {
	Upload(ctx context.Context, u Upload) (*models.ClosetItem, error)
	Delete(ctx context.Context, id string) error
	UpdateCategory(ctx context.Context, id string, category models.Category) error
}

type service struct {
	session  session.Service
	store    docstore.Store
	uploader blob.Uploader
	local    storage.Store
	mirror   mirror.Service
	now      func() time.Time

	// localMu serializes read-modify-write of the local closet list.
	localMu   sync.Mutex
	lastLocal int64
}

var _ Service = (*service)(nil)

// NewService wires the coordinator. store and uploader may be nil when no
// remote service is configured.
func NewService(sess session.Service, store docstore.Store, uploader blob.Uploader, local storage.Store, m mirror.Service) Service {
	return &service{
		session:  sess,
		store:    store,
		uploader: uploader,
		local:    local,
		mirror:   m,
		now:      time.Now,
	}
}

// record is the remote closet document written on upload.
type record struct {
	OwnerID  string          `structs:"ownerId"`
	Category models.Category `structs:"category"`
	ImageURL string          `structs:"imageUrl"`
	AssetID  string          `structs:"assetId"`
	Name     string          `structs:"name,omitempty"`
	Private  bool            `structs:"private"`
}

func (s *service) remoteUser() (string, bool) {
	current := s.session.Current()
	if s.store == nil || s.uploader == nil || !current.Authenticated() {
		return "", false
	}
	return current.UserID, true
}

func (s *service) Upload(ctx context.Context, u Upload) (*models.ClosetItem, error) {
	if !u.Category.Valid() {
		return nil, models.Invalid("unknown category %q", u.Category)
	}
	contentType, err := blob.DetectImage(u.Data)
	if err != nil {
		return nil, models.Invalid("%v", err)
	}
	if userID, ok := s.remoteUser(); ok {
		return s.uploadRemote(ctx, userID, contentType, u)
	}
	return s.uploadLocal(contentType, u)
}

func (s *service) uploadRemote(ctx context.Context, userID, contentType string, u Upload) (*models.ClosetItem, error) {
	asset, err := s.uploader.Upload(ctx, blob.Upload{
		Filename:    u.Filename,
		ContentType: contentType,
		Body:        bytes.NewReader(u.Data),
		Folder:      blob.Folder(folderKind, userID),
	})
	if err != nil {
		slog.With("error", err.Error()).Error("failed to upload closet image", "userId", userID)
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	fields := structs.Map(record{
		OwnerID:  userID,
		Category: u.Category,
		ImageURL: asset.URL,
		AssetID:  asset.ID,
		Name:     u.Name,
		Private:  true,
	})
	fields["createdAt"] = docstore.ServerTimestamp
	id, err := s.store.Add(ctx, models.ClosetPath(userID), fields)
	if err != nil {
		slog.With("error", err.Error()).Error("closet image uploaded but not recorded", "assetId", asset.ID)
		return nil, &models.PartialUploadError{AssetID: asset.ID, AssetURL: asset.URL, Err: err}
	}
	return &models.ClosetItem{
		ID:        id,
		OwnerID:   userID,
		Category:  u.Category,
		ImageURL:  asset.URL,
		AssetID:   asset.ID,
		Name:      u.Name,
		CreatedAt: s.now(),
		Private:   true,
	}, nil
}

func (s *service) uploadLocal(contentType string, u Upload) (*models.ClosetItem, error) {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	items, err := s.loadLocal()
	if err != nil {
		return nil, err
	}
	now := s.now()
	nanos := now.UnixNano()
	if nanos <= s.lastLocal {
		nanos = s.lastLocal + 1
	}
	s.lastLocal = nanos

	item := models.ClosetItem{
		ID:        fmt.Sprintf("%s%d", models.LocalIDPrefix, nanos),
		OwnerID:   s.session.Current().UserID,
		Category:  u.Category,
		ImageURL:  "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(u.Data),
		Name:      u.Name,
		CreatedAt: now,
		Private:   true,
	}
	items = append([]models.ClosetItem{item}, items...)
	if err := s.saveLocal(items); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if models.IsLocalID(id) {
		return s.editLocal(id, func(items []models.ClosetItem, i int) []models.ClosetItem {
			return append(items[:i], items[i+1:]...)
		})
	}
	userID, ok := s.remoteUser()
	if !ok {
		return models.ErrNoIdentity
	}
	path := models.ClosetPath(userID)
	if _, err := s.store.Get(ctx, path, id); err != nil {
		return notFound(err, id)
	}
	// The hosted image is left in place.
	if err := s.store.Delete(ctx, path, id); err != nil {
		return fmt.Errorf("failed to delete closet item %s: %w", id, err)
	}
	return nil
}

func (s *service) UpdateCategory(ctx context.Context, id string, category models.Category) error {
	if !category.Valid() {
		return models.Invalid("unknown category %q", category)
	}
	if models.IsLocalID(id) {
		return s.editLocal(id, func(items []models.ClosetItem, i int) []models.ClosetItem {
			items[i].Category = category
			return items
		})
	}
	userID, ok := s.remoteUser()
	if !ok {
		return models.ErrNoIdentity
	}
	err := s.store.Update(ctx, models.ClosetPath(userID), id, map[string]any{"category": category})
	if err != nil {
		return notFound(err, id)
	}
	return nil
}

func (s *service) editLocal(id string, edit func(items []models.ClosetItem, i int) []models.ClosetItem) error {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	items, err := s.loadLocal()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			return s.saveLocal(edit(items, i))
		}
	}
	return fmt.Errorf("%w: closet item %s", models.ErrNotFound, id)
}

func (s *service) loadLocal() ([]models.ClosetItem, error) {
	var items []models.ClosetItem
	if _, err := storage.LoadJSON(s.local, mirror.LocalClosetKey, &items); err != nil {
		return nil, fmt.Errorf("failed to read local closet: %w", err)
	}
	return items, nil
}

// saveLocal persists items and shows them right away, since no watch will
// report local writes.
func (s *service) saveLocal(items []models.ClosetItem) error {
	if err := storage.SaveJSON(s.local, mirror.LocalClosetKey, items); err != nil {
		slog.With("error", err.Error()).Error("failed to persist local closet")
		return fmt.Errorf("failed to persist local closet: %w", err)
	}
	s.mirror.ApplyLocalCloset(items)
	return nil
}

func notFound(err error, id string) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: closet item %s", models.ErrNotFound, id)
	}
	return err
}
