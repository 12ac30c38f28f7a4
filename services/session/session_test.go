package session

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"styleSphere/models"
	"styleSphere/services/identity"
)

type fakeProvider struct {
	users     map[string]string
	anonErr   error
	signedOut []string
}

func (f *fakeProvider) Verify(_ context.Context, idToken string) (*identity.Identity, error) {
	uid, ok := f.users[idToken]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return &identity.Identity{UserID: uid, DisplayName: "user " + uid}, nil
}

func (f *fakeProvider) SignInAnonymously(context.Context) (*identity.Identity, error) {
	if f.anonErr != nil {
		return nil, f.anonErr
	}
	return &identity.Identity{UserID: "anon", Anonymous: true}, nil
}

func (f *fakeProvider) SignOut(_ context.Context, uid string) error {
	f.signedOut = append(f.signedOut, uid)
	return nil
}

func TestStart(t *testing.T) {
	tests := []struct {
		name     string
		provider identity.Provider
		token    string
		want     models.Session
	}{
		{
			name:     "no provider is local mode",
			provider: nil,
			want:     models.Session{IsReady: true},
		},
		{
			name:     "explicit credential",
			provider: &fakeProvider{users: map[string]string{"tok": "u1"}},
			token:    "tok",
			want:     models.Session{UserID: "u1", DisplayName: "user u1", IsReady: true},
		},
		{
			name:     "bad credential runs without identity",
			provider: &fakeProvider{},
			token:    "expired",
			want:     models.Session{IsReady: true},
		},
		{
			name:     "no credential signs in anonymously",
			provider: &fakeProvider{},
			want:     models.Session{UserID: "anon", IsReady: true},
		},
		{
			name:     "anonymous failure is ready without identity",
			provider: &fakeProvider{anonErr: errors.New("disabled")},
			want:     models.Session{IsReady: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.provider)
			got := s.Start(context.Background(), tt.token)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Start() = %+v, want %+v", got, tt.want)
			}
			if !reflect.DeepEqual(s.Current(), tt.want) {
				t.Errorf("Current() = %+v, want %+v", s.Current(), tt.want)
			}
		})
	}
}

func TestOnChange(t *testing.T) {
	provider := &fakeProvider{users: map[string]string{"a": "u1", "b": "u2"}}
	s := NewService(provider)

	var seen []string
	cancel := s.OnChange(func(sess models.Session) {
		seen = append(seen, sess.UserID)
	})

	ctx := context.Background()
	s.Start(ctx, "a")
	if _, err := s.SignIn(ctx, "a"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if _, err := s.SignIn(ctx, "b"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	cancel()
	s.SignIn(ctx, "a")

	want := []string{"u1", "u2", ""}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("changes = %v, want %v", seen, want)
	}
	if !reflect.DeepEqual(provider.signedOut, []string{"u2"}) {
		t.Errorf("signed out = %v", provider.signedOut)
	}
}

func TestSignInErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewService(nil).SignIn(ctx, "tok"); !errors.Is(err, models.ErrNoIdentity) {
		t.Errorf("SignIn() without provider error = %v", err)
	}
	s := NewService(&fakeProvider{})
	if _, err := s.SignIn(ctx, "nope"); !errors.Is(err, models.ErrNoIdentity) {
		t.Errorf("SignIn() bad token error = %v", err)
	}
}

func TestSignOutWithoutProvider(t *testing.T) {
	s := NewService(nil).(*service)
	s.set(models.Session{UserID: "u1", IsReady: true})
	if err := s.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if want := (models.Session{IsReady: true}); !reflect.DeepEqual(s.Current(), want) {
		t.Errorf("Current() = %+v, want %+v", s.Current(), want)
	}
}
