package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"styleSphere/api"
	"styleSphere/clients/blob"
	"styleSphere/clients/storage"
	"styleSphere/docstore"
	"styleSphere/models"
	"styleSphere/services/identity"
	"styleSphere/services/view"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func localRouter(t *testing.T) (*gin.Engine, Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	server := NewServer(nil, nil, nil, storage.NewMemory(), nil)
	server.Session.Start(t.Context(), "")
	r, err := newRouter(server)
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}
	return r, server
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, path, category string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if category != "" {
		_ = mw.WriteField("category", category)
	}
	part, err := mw.CreateFormFile("file", "item.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(data)
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPing(t *testing.T) {
	r, _ := localRouter(t)
	w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var pong api.Pong
	if err := json.Unmarshal(w.Body.Bytes(), &pong); err != nil || pong.Ping != "pong" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestOpenAPIServedBeforeValidation(t *testing.T) {
	r, _ := localRouter(t)
	w := do(r, httptest.NewRequest(http.MethodGet, "/openapi", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "openapi:") {
		t.Errorf("body does not look like an openapi document")
	}
}

func TestLocalClosetUpload(t *testing.T) {
	r, server := localRouter(t)

	w := do(r, upload(t, "/closet", "Tops", pngData))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", w.Code, w.Body.String())
	}
	var item models.ClosetItem
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatal(err)
	}
	if !models.IsLocalID(item.ID) {
		t.Errorf("id = %q, want a local id", item.ID)
	}
	if toast := server.View.State().Toast; toast == nil || toast.Kind != view.Success {
		t.Errorf("toast = %+v, want success", toast)
	}

	w = do(r, httptest.NewRequest(http.MethodGet, "/closet?category=Tops", nil))
	var items []models.ClosetItem
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != item.ID {
		t.Errorf("closet = %+v, want the uploaded item", items)
	}

	w = do(r, httptest.NewRequest(http.MethodGet, "/closet?category=Bottoms", nil))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("filtered closet = %s, want []", w.Body.String())
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	r, server := localRouter(t)
	w := do(r, upload(t, "/closet", "Tops", []byte("plain text")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body api.Error
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Code != "invalid_input" {
		t.Errorf("body = %s", w.Body.String())
	}
	if toast := server.View.State().Toast; toast == nil || toast.Kind != view.Failure {
		t.Errorf("toast = %+v, want error", toast)
	}
}

func TestRemoteOperationsNeedIdentity(t *testing.T) {
	r, _ := localRouter(t)
	tests := []struct {
		name string
		req  *http.Request
	}{
		{"save outfit", httptest.NewRequest(http.MethodPost, "/outfits", strings.NewReader(`{"itemIds":[]}`))},
		{"checkout unknown listing", httptest.NewRequest(http.MethodPost, "/marketplace/abc/checkout", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Header.Set("Content-Type", "application/json")
			w := do(r, tt.req)
			if w.Code < http.StatusBadRequest {
				t.Errorf("status = %d, want an error", w.Code)
			}
		})
	}
}

func TestRecommendationCursorWithoutCombos(t *testing.T) {
	r, _ := localRouter(t)
	w := do(r, httptest.NewRequest(http.MethodPost, "/recommendations/next", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var recs api.Recommendations
	if err := json.Unmarshal(w.Body.Bytes(), &recs); err != nil {
		t.Fatal(err)
	}
	if recs.SelectedIndex != 0 || len(recs.Combos) != 0 {
		t.Errorf("recommendations = %+v, want empty at index 0", recs)
	}
}

func TestViewReportsLocalMode(t *testing.T) {
	r, _ := localRouter(t)
	w := do(r, httptest.NewRequest(http.MethodGet, "/view", nil))
	var v api.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if !v.Local || !v.Session.IsReady || v.Screen != view.Login {
		t.Errorf("view = %+v", v)
	}
}

type tokenProvider struct{}

func (tokenProvider) Verify(_ context.Context, idToken string) (*identity.Identity, error) {
	if idToken != "good" {
		return nil, identity.ErrInvalidToken
	}
	return &identity.Identity{UserID: "u1", DisplayName: "Asha"}, nil
}

func (tokenProvider) SignInAnonymously(context.Context) (*identity.Identity, error) {
	return nil, identity.ErrAnonymousUnsupported
}

func (tokenProvider) SignOut(context.Context, string) error { return nil }

type countingUploader struct {
	mu sync.Mutex
	n  int
}

func (u *countingUploader) Upload(_ context.Context, up blob.Upload) (*blob.Asset, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.n++
	id := fmt.Sprintf("%s/asset-%d", up.Folder, u.n)
	return &blob.Asset{ID: id, URL: "https://cdn.example/" + id}, nil
}

func TestRemoteUploadsProduceRecommendations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := docstore.NewMemory()
	server := NewServer(store, tokenProvider{}, &countingUploader{}, storage.NewMemory(), nil)
	r, err := newRouter(server)
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}
	// Hooks run in registration order, so this one fires after the view store saw the set.
	mirrored := make(chan struct{}, 1)
	server.Mirror.OnRecommendations(func(_ string, set *models.RecommendedOutfitSet) {
		if set != nil {
			select {
			case mirrored <- struct{}{}:
			default:
			}
		}
	})
	if sess := server.Session.Start(t.Context(), "good"); sess.UserID != "u1" {
		t.Fatalf("Start() = %+v, want u1", sess)
	}

	for _, category := range []string{"Tops", "Tops", "Bottoms", "Footwear"} {
		w := do(r, upload(t, "/closet", category, pngData))
		if w.Code != http.StatusCreated {
			t.Fatalf("upload %s status = %d, body %s", category, w.Code, w.Body.String())
		}
	}

	select {
	case <-mirrored:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for recommendations; view = %+v", server.Mirror.View())
	}
	v := server.Mirror.View()
	if v.Recommendations == nil {
		t.Fatalf("view has no recommendations")
	}
	if v.Local {
		t.Errorf("view is local, want remote")
	}
	if got := len(v.Recommendations.Combos); got != 2 {
		t.Errorf("len(combos) = %d, want 2", got)
	}
	if len(v.MyCloset()) != 4 {
		t.Errorf("closet has %d items, want 4", len(v.MyCloset()))
	}
	// One profile write on sign in and one recommendation write.
	if got := store.Writes(docstore.OpSet); got != 2 {
		t.Errorf("set writes = %d, want 2", got)
	}

	w := do(r, httptest.NewRequest(http.MethodPost, "/recommendations/next", nil))
	var recs api.Recommendations
	if err := json.Unmarshal(w.Body.Bytes(), &recs); err != nil {
		t.Fatal(err)
	}
	if recs.SelectedIndex != 1 || recs.Outfit[models.Footwear] == nil {
		t.Errorf("recommendations after next = %+v", recs)
	}
}

func TestBadCredentialRunsWithoutIdentity(t *testing.T) {
	server := NewServer(docstore.NewMemory(), tokenProvider{}, &countingUploader{}, storage.NewMemory(), nil)
	sess := server.Session.Start(t.Context(), "expired")
	if sess.Authenticated() || !sess.IsReady {
		t.Errorf("Start() = %+v, want ready without identity", sess)
	}
	if !server.Mirror.View().Local {
		t.Errorf("mirror should fall back to the local closet")
	}
}

func TestRoutesBindParameters(t *testing.T) {
	r, _ := localRouter(t)
	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"closet filter by category", http.MethodGet, "/closet?category=Tops", http.StatusOK},
		{"marketplace multi select", http.MethodGet, "/marketplace?category=Tops&category=Bottoms&availability=buy&q=denim", http.StatusOK},
		{"delete unknown local item", http.MethodDelete, "/closet/local-404", http.StatusNotFound},
		{"cancel unknown order", http.MethodPost, "/checkout/order_missing/cancel", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("%s %s status = %d, want %d (body %s)", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}
