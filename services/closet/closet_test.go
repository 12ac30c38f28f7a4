package closet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"styleSphere/clients/blob"
	"styleSphere/clients/storage"
	"styleSphere/docstore"
	"styleSphere/models"
	"styleSphere/services/identity"
	"styleSphere/services/mirror"
	"styleSphere/services/session"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type staticProvider struct{ uid string }

func (p staticProvider) Verify(context.Context, string) (*identity.Identity, error) {
	return &identity.Identity{UserID: p.uid}, nil
}

func (p staticProvider) SignInAnonymously(context.Context) (*identity.Identity, error) {
	return &identity.Identity{UserID: p.uid, Anonymous: true}, nil
}

func (p staticProvider) SignOut(context.Context, string) error { return nil }

func newSession(uid string) session.Service {
	var s session.Service
	if uid == "" {
		s = session.NewService(nil)
	} else {
		s = session.NewService(staticProvider{uid: uid})
	}
	s.Start(context.Background(), "")
	return s
}

type fakeUploader struct {
	calls   int
	err     error
	folders []string
}

func (f *fakeUploader) Upload(_ context.Context, u blob.Upload) (*blob.Asset, error) {
	f.calls++
	f.folders = append(f.folders, u.Folder)
	if f.err != nil {
		return nil, f.err
	}
	id := fmt.Sprintf("asset-%d", f.calls)
	return &blob.Asset{URL: "https://cdn.example/" + u.Folder + "/" + id, ID: id}, nil
}

func remoteFixture(t *testing.T) (Service, *docstore.Memory, *fakeUploader) {
	t.Helper()
	store := docstore.NewMemory()
	uploader := &fakeUploader{}
	local := storage.NewMemory()
	svc := NewService(newSession("u1"), store, uploader, local, mirror.NewService(store, local))
	return svc, store, uploader
}

func TestUploadRemote(t *testing.T) {
	ctx := context.Background()
	svc, store, uploader := remoteFixture(t)

	item, err := svc.Upload(ctx, Upload{Category: models.Tops, Filename: "shirt.png", Data: pngData})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if models.IsLocalID(item.ID) {
		t.Errorf("remote item got local id %s", item.ID)
	}
	if uploader.folders[0] != "stylesphere/closet/u1" {
		t.Errorf("folder = %s", uploader.folders[0])
	}
	doc, err := store.Get(ctx, models.ClosetPath("u1"), item.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Data["ownerId"] != "u1" || doc.Data["assetId"] != "asset-1" || doc.Data["private"] != true {
		t.Errorf("stored doc = %v", doc.Data)
	}
	if _, ok := doc.Data["createdAt"].(time.Time); !ok {
		t.Errorf("createdAt = %v, want server timestamp", doc.Data["createdAt"])
	}
}

func TestUploadBlobFailureWritesNothing(t *testing.T) {
	svc, store, uploader := remoteFixture(t)
	uploader.err = &blob.UploadError{Host: "cloudinary", Status: 500, Message: "down"}

	_, err := svc.Upload(context.Background(), Upload{Category: models.Tops, Data: pngData})
	if err == nil {
		t.Fatal("Upload() expected error")
	}
	var partial *models.PartialUploadError
	if errors.As(err, &partial) {
		t.Errorf("blob failure reported as partial upload")
	}
	if got := store.Writes(docstore.OpAdd); got != 0 {
		t.Errorf("writes = %d, want 0", got)
	}
}

func TestUploadPartialFailure(t *testing.T) {
	svc, store, _ := remoteFixture(t)
	store.FailNext(docstore.OpAdd, errors.New("quota exceeded"))

	_, err := svc.Upload(context.Background(), Upload{Category: models.Footwear, Data: pngData})
	var partial *models.PartialUploadError
	if !errors.As(err, &partial) {
		t.Fatalf("Upload() error = %v, want PartialUploadError", err)
	}
	if partial.AssetID != "asset-1" || !strings.HasPrefix(partial.AssetURL, "https://cdn.example/") {
		t.Errorf("partial = %+v", partial)
	}
}

func TestUploadInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   Upload
	}{
		{"unknown category", Upload{Category: "Hats", Data: pngData}},
		{"empty data", Upload{Category: models.Tops}},
		{"not an image", Upload{Category: models.Tops, Data: []byte("just some text")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, uploader := remoteFixture(t)
			_, err := svc.Upload(context.Background(), tt.in)
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("Upload() error = %v, want invalid input", err)
			}
			if uploader.calls != 0 {
				t.Errorf("uploader called %d times", uploader.calls)
			}
		})
	}
}

func TestLocalUploadPersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	local, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	m := mirror.NewService(nil, local)
	if err := m.Bind(ctx, ""); err != nil {
		t.Fatal(err)
	}
	svc := NewService(newSession(""), nil, nil, local, m)

	item, err := svc.Upload(ctx, Upload{Category: models.Bottoms, Filename: "jeans.png", Data: pngData})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !strings.HasPrefix(item.ID, models.LocalIDPrefix) {
		t.Errorf("id = %s, want local prefix", item.ID)
	}
	if !strings.HasPrefix(item.ImageURL, "data:image/png;base64,") {
		t.Errorf("imageUrl = %.40s", item.ImageURL)
	}
	if v := m.View(); len(v.MyCloset()) != 1 || v.MyCloset()[0].ID != item.ID {
		t.Errorf("view = %+v, want uploaded item", v.MyCloset())
	}

	reloaded, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	m2 := mirror.NewService(nil, reloaded)
	if err := m2.Bind(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if v := m2.View(); len(v.Closet) != 1 || v.Closet[0].ID != item.ID {
		t.Errorf("reloaded closet = %+v", v.Closet)
	}
}

func TestLocalUploadsAreSerialized(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	m := mirror.NewService(nil, local)
	m.Bind(ctx, "")
	svc := NewService(newSession(""), nil, nil, local, m)

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := svc.Upload(ctx, Upload{Category: models.Tops, Data: pngData})
			done <- err
		}()
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
	}
	closet := m.View().Closet
	if len(closet) != 10 {
		t.Fatalf("closet has %d items, want 10", len(closet))
	}
	ids := map[string]bool{}
	for _, item := range closet {
		ids[item.ID] = true
	}
	if len(ids) != 10 {
		t.Errorf("ids not unique: %v", ids)
	}
}

func TestDeleteAndUpdate(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	m := mirror.NewService(nil, local)
	m.Bind(ctx, "")
	svc := NewService(newSession(""), nil, nil, local, m)

	item, err := svc.Upload(ctx, Upload{Category: models.Tops, Data: pngData})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateCategory(ctx, item.ID, models.Footwear); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if got := m.View().Closet[0].Category; got != models.Footwear {
		t.Errorf("category = %s, want Footwear", got)
	}
	if err := svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(m.View().Closet) != 0 {
		t.Errorf("closet not empty after delete")
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"delete again", svc.Delete(ctx, item.ID), models.ErrNotFound},
		{"update missing", svc.UpdateCategory(ctx, "local-404", models.Tops), models.ErrNotFound},
		{"remote item without identity", svc.Delete(ctx, "abc123"), models.ErrNoIdentity},
		{"bad category", svc.UpdateCategory(ctx, "abc123", "Hats"), models.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestRemoteDeleteAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := remoteFixture(t)

	item, err := svc.Upload(ctx, Upload{Category: models.Tops, Data: pngData})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateCategory(ctx, item.ID, models.Bottoms); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	doc, _ := store.Get(ctx, models.ClosetPath("u1"), item.ID)
	if doc.Data["category"] != models.Bottoms {
		t.Errorf("category = %v", doc.Data["category"])
	}
	if err := svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, item.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
	if err := svc.UpdateCategory(ctx, "missing", models.Tops); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("UpdateCategory() missing error = %v", err)
	}
	if got := store.Writes(docstore.OpDelete); got != 1 {
		t.Errorf("delete writes = %d, want 1", got)
	}
}
