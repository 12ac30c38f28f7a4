// Package blob describes the external image host. Clients can upload but
// never delete: hosted assets outlive the documents that point at them.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Asset is a hosted blob.
type Asset struct {
	URL string
	ID  string
}

type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
	// Folder scopes the asset, e.g. "stylesphere/closet/{uid}".
	Folder string
}

type Uploader interface {
	Upload(ctx context.Context, u Upload) (*Asset, error)
}

const rootFolder = "stylesphere"

// Folder returns the per-user folder key for a kind of upload.
func Folder(kind, userID string) string {
	return path.Join(rootFolder, kind, userID)
}

// ObjectName joins folder and a generated name, keeping the original extension.
func ObjectName(folder, name, filename string) string {
	return path.Join(folder, name+path.Ext(filename))
}

// UploadError is returned when the host rejects an upload.
type UploadError struct {
	Host    string
	Status  int
	Message string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s upload failed (%d): %s", e.Host, e.Status, e.Message)
}

var ErrNotImage = errors.New("not an image")

// DetectImage sniffs the content type of data and rejects anything that is
// not an image.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrNotImage)
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotImage, mtype.String())
	}
	return mtype.String(), nil
}
