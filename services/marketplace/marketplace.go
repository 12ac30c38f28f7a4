// Package marketplace manages listings in the shared marketplace collection.
// Listing always needs a confirmed identity and remote services; there is no
// local fallback.
package marketplace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/fatih/structs"

	"styleSphere/clients/blob"
	"styleSphere/docstore"
	"styleSphere/models"
	"styleSphere/services/session"
)

const folderKind = "marketplace"

type NewListing struct {
	Name         string              `validate:"required"`
	Price        int64               `validate:"gt=0"`
	Category     models.Category     `validate:"required,oneof=Tops Bottoms Footwear"`
	Availability models.Availability `validate:"required,oneof=buy rent"`
	Gender       models.Gender       `validate:"required,oneof=Mens Womens Unisex"`
	Filename     string
	Data         []byte `validate:"required"`
}

// ListingUpdate changes the non-nil fields. Data, when set, replaces the image.
type ListingUpdate struct {
	Name         *string              `structs:"name,omitempty" validate:"omitempty,min=1"`
	Price        *int64               `structs:"price,omitempty" validate:"omitempty,gt=0"`
	Category     *models.Category     `structs:"category,omitempty" validate:"omitempty,oneof=Tops Bottoms Footwear"`
	Availability *models.Availability `structs:"availability,omitempty" validate:"omitempty,oneof=buy rent"`
	Gender       *models.Gender       `structs:"gender,omitempty" validate:"omitempty,oneof=Mens Womens Unisex"`
	Filename     string               `structs:"-"`
	Data         []byte               `structs:"-"`
}

// fields returns the set fields with pointers resolved.
func (u ListingUpdate) fields() map[string]any {
	fields := structs.Map(u)
	for k, v := range fields {
		fields[k] = reflect.Indirect(reflect.ValueOf(v)).Interface()
	}
	return fields
}

type Service interface {
	Create(ctx context.Context, l NewListing) (*models.Listing, error)
	Update(ctx context.Context, id string, u ListingUpdate) error
	Delete(ctx context.Context, id string) error
}

type service struct {
	session  session.Service
	store    docstore.Store
	uploader blob.Uploader
}

var _ Service = (*service)(nil)

func NewService(sess session.Service, store docstore.Store, uploader blob.Uploader) Service {
	return &service{
		session:  sess,
		store:    store,
		uploader: uploader,
	}
}

type record struct {
	OwnerID      string              `structs:"ownerId"`
	Name         string              `structs:"name"`
	Price        int64               `structs:"price"`
	Category     models.Category     `structs:"category"`
	Availability models.Availability `structs:"availability"`
	Gender       models.Gender       `structs:"gender"`
	ImageURL     string              `structs:"imageUrl"`
	AssetID      string              `structs:"assetId"`
}

func (s *service) remoteUser() (string, error) {
	current := s.session.Current()
	if s.store == nil || s.uploader == nil || !current.Authenticated() {
		return "", fmt.Errorf("listing requires a signed in user: %w", models.ErrNoIdentity)
	}
	return current.UserID, nil
}

func (s *service) Create(ctx context.Context, l NewListing) (*models.Listing, error) {
	if err := models.Validate(l); err != nil {
		return nil, err
	}
	contentType, err := blob.DetectImage(l.Data)
	if err != nil {
		return nil, models.Invalid("%v", err)
	}
	userID, err := s.remoteUser()
	if err != nil {
		return nil, err
	}

	asset, err := s.upload(ctx, userID, l.Filename, contentType, l.Data)
	if err != nil {
		return nil, err
	}
	listing := models.Listing{
		OwnerID:      userID,
		Name:         l.Name,
		Price:        l.Price,
		Category:     l.Category,
		Availability: l.Availability,
		Gender:       l.Gender,
		ImageURL:     asset.URL,
		AssetID:      asset.ID,
	}
	fields := structs.Map(record{
		OwnerID:      listing.OwnerID,
		Name:         listing.Name,
		Price:        listing.Price,
		Category:     listing.Category,
		Availability: listing.Availability,
		Gender:       listing.Gender,
		ImageURL:     listing.ImageURL,
		AssetID:      listing.AssetID,
	})
	fields["createdAt"] = docstore.ServerTimestamp
	id, err := s.store.Add(ctx, models.MarketplaceCollection, fields)
	if err != nil {
		slog.With("error", err.Error()).Error("listing image uploaded but not recorded", "assetId", asset.ID)
		return nil, &models.PartialUploadError{AssetID: asset.ID, AssetURL: asset.URL, Err: err}
	}
	listing.ID = id
	return &listing, nil
}

func (s *service) upload(ctx context.Context, userID, filename, contentType string, data []byte) (*blob.Asset, error) {
	asset, err := s.uploader.Upload(ctx, blob.Upload{
		Filename:    filename,
		ContentType: contentType,
		Body:        bytes.NewReader(data),
		Folder:      blob.Folder(folderKind, userID),
	})
	if err != nil {
		slog.With("error", err.Error()).Error("failed to upload listing image", "userId", userID)
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	return asset, nil
}

// owned loads a listing and checks that userID owns it.
func (s *service) owned(ctx context.Context, userID, id string) (*models.Listing, error) {
	doc, err := s.store.Get(ctx, models.MarketplaceCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: listing %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listing %s: %w", id, err)
	}
	listing, err := docstore.Decode[models.Listing](*doc)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != userID {
		slog.Warn("rejected edit of listing owned by another user", "listingId", id, "userId", userID)
		return nil, models.ErrForbidden
	}
	return &listing, nil
}

func (s *service) Update(ctx context.Context, id string, u ListingUpdate) error {
	if err := models.Validate(u); err != nil {
		return err
	}
	var contentType string
	if len(u.Data) > 0 {
		var err error
		if contentType, err = blob.DetectImage(u.Data); err != nil {
			return models.Invalid("%v", err)
		}
	}
	userID, err := s.remoteUser()
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	fields := u.fields()
	var asset *blob.Asset
	if contentType != "" {
		if asset, err = s.upload(ctx, userID, u.Filename, contentType, u.Data); err != nil {
			return err
		}
		fields["imageUrl"] = asset.URL
		fields["assetId"] = asset.ID
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.store.Update(ctx, models.MarketplaceCollection, id, fields); err != nil {
		if asset != nil {
			return &models.PartialUploadError{AssetID: asset.ID, AssetURL: asset.URL, Err: err}
		}
		return fmt.Errorf("failed to update listing %s: %w", id, err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	userID, err := s.remoteUser()
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, models.MarketplaceCollection, id); err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	return nil
}
