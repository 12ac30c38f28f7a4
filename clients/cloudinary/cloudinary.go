// Package cloudinary uploads images with an unsigned upload preset. Unsigned
// uploads cannot be deleted from the client; the asset id is kept so a trusted
// backend holding the API secret could remove it later.
package cloudinary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"

	"styleSphere/clients/blob"
)

const BaseURL = "https://api.cloudinary.com"

type Uploader struct {
	http         *resty.Client
	cloudName    string
	uploadPreset string
}

var _ blob.Uploader = (*Uploader)(nil)

// NewUploader expects http to have BaseURL set; NewClient does that.
func NewUploader(http *resty.Client, cloudName, uploadPreset string) *Uploader {
	return &Uploader{
		http:         http,
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
	}
}

func NewClient() *resty.Client {
	return resty.New().SetBaseURL(BaseURL)
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
}

type uploadError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *Uploader) Upload(ctx context.Context, up blob.Upload) (*blob.Asset, error) {
	result := &uploadResponse{}
	responseError := &uploadError{}

	resp, err := u.http.R().
		SetContext(ctx).
		SetFileReader("file", up.Filename, up.Body).
		SetFormData(map[string]string{
			"upload_preset": u.uploadPreset,
			"folder":        up.Folder,
		}).
		SetResult(result).
		SetError(responseError).
		Post(fmt.Sprintf("/v1_1/%s/upload", u.cloudName))
	if err != nil {
		slog.With("error", err.Error()).Error("Cloudinary upload request failed")
		return nil, err
	}
	if resp.IsError() {
		return nil, &blob.UploadError{
			Host:    "cloudinary",
			Status:  resp.StatusCode(),
			Message: responseError.Error.Message,
		}
	}

	url := result.SecureURL
	if url == "" {
		url = result.URL
	}
	if url == "" {
		return nil, &blob.UploadError{Host: "cloudinary", Status: resp.StatusCode(), Message: "response has no url"}
	}
	slog.Debug("Cloudinary upload success", "url", url, "publicId", result.PublicID)
	return &blob.Asset{URL: url, ID: result.PublicID}, nil
}
