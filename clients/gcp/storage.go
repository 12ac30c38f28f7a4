package gcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"styleSphere/clients/blob"
)

// GCSUploader hosts images in a publicly readable Cloud Storage bucket.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

var _ blob.Uploader = (*GCSUploader)(nil)

func NewGCSUploader(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSUploader, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, up blob.Upload) (*blob.Asset, error) {
	name := blob.ObjectName(up.Folder, uuid.NewString(), up.Filename)
	w := u.client.Bucket(u.bucket).Object(name).NewWriter(ctx)
	w.ContentType = up.ContentType

	if _, err := io.Copy(w, up.Body); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("io.Copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("Writer.Close: %w", err)
	}

	slog.Debug("Blob uploaded successfully", "bucket", u.bucket, "objectName", name)
	return &blob.Asset{
		URL: fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, name),
		ID:  name,
	}, nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}
