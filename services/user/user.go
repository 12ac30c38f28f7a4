package user

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/fatih/structs"
	"github.com/rs/zerolog/log"

	"styleSphere/clients/blob"
	"styleSphere/docstore"
	"styleSphere/models"
)

type Service interface {
	GetUser(ctx context.Context, ID string) (*models.Profile, error)
	CreateUser(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	// EnsureUser returns the profile for the session, creating it on first sign in.
	EnsureUser(ctx context.Context, session models.Session) (*models.Profile, error)
	// UpdateProfilePicture uploads a new picture and returns its URL.
	UpdateProfilePicture(ctx context.Context, userID, filename string, data []byte) (string, error)
}

type userService struct {
	db       docstore.Store
	uploader blob.Uploader
}

var _ Service = (*userService)(nil)

const profileFolder = "profiles"

func NewUserService(db docstore.Store, uploader blob.Uploader) Service {
	return &userService{
		db:       db,
		uploader: uploader,
	}
}

var NotFound = errors.New("user not found")

func (s *userService) GetUser(ctx context.Context, ID string) (*models.Profile, error) {
	doc, err := s.db.Get(ctx, models.UsersCollection, ID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", models.ErrNotFound, NotFound)
	}
	if err != nil {
		return nil, err
	}
	profile, err := docstore.Decode[models.Profile](*doc)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *userService) CreateUser(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if profile == nil {
		return nil, errors.New("user is nil")
	}
	if profile.ID == "" {
		return nil, models.Invalid("user id is required")
	}
	fields := structs.Map(profileRecord{
		ID:          profile.ID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
	})
	fields["createdAt"] = docstore.ServerTimestamp
	if err := s.db.Set(ctx, models.UsersCollection, profile.ID, fields, true); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, profile.ID)
}

func (s *userService) EnsureUser(ctx context.Context, session models.Session) (*models.Profile, error) {
	if !session.Authenticated() {
		return nil, models.ErrNoIdentity
	}
	profile, err := s.GetUser(ctx, session.UserID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, NotFound) {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return s.CreateUser(ctx, &models.Profile{ID: session.UserID, DisplayName: session.DisplayName})
}

func (s *userService) UpdateProfilePicture(ctx context.Context, userID, filename string, data []byte) (string, error) {
	if userID == "" || s.uploader == nil {
		return "", models.ErrNoIdentity
	}
	contentType, err := blob.DetectImage(data)
	if err != nil {
		return "", models.Invalid("%v", err)
	}
	asset, err := s.uploader.Upload(ctx, blob.Upload{
		Filename:    filename,
		ContentType: contentType,
		Body:        bytes.NewReader(data),
		Folder:      blob.Folder(profileFolder, userID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload profile picture: %w", err)
	}
	err = s.db.Set(ctx, models.UsersCollection, userID, map[string]any{
		"profilePicture": asset.URL,
		"updatedAt":      docstore.ServerTimestamp,
	}, true)
	if err != nil {
		log.Warn().Err(err).Str("assetId", asset.ID).Msg("profile picture uploaded but not recorded")
		return "", &models.PartialUploadError{AssetID: asset.ID, AssetURL: asset.URL, Err: err}
	}
	return asset.URL, nil
}
