package amazon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"styleSphere/clients/blob"
)

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Uploader struct {
	client PutObjectAPI
	bucket string
	region string
}

var _ blob.Uploader = (*Uploader)(nil)

// NewUploader loads the default AWS configuration for region.
func NewUploader(ctx context.Context, region, bucket string) (*Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	slog.Info("S3 client initialized", "region", region, "bucket", bucket)
	return NewUploaderWithClient(s3.NewFromConfig(cfg), region, bucket), nil
}

func NewUploaderWithClient(client PutObjectAPI, region, bucket string) *Uploader {
	return &Uploader{client: client, bucket: bucket, region: region}
}

func (u *Uploader) Upload(ctx context.Context, up blob.Upload) (*blob.Asset, error) {
	key := blob.ObjectName(up.Folder, uuid.NewString(), up.Filename)
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   up.Body,
	}
	if up.ContentType != "" {
		input.ContentType = aws.String(up.ContentType)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return &blob.Asset{
		URL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key),
		ID:  key,
	}, nil
}
