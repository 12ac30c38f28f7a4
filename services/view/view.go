// Package view holds the presentation state of the session: the current
// screen, the transient toast and the selected recommendation.
package view

import (
	"sync"
	"time"

	"styleSphere/services/recommend"
)

type Screen string

const (
	Login        Screen = "login"
	Dashboard    Screen = "dashboard"
	Closet       Screen = "closet"
	Marketplace  Screen = "marketplace"
	SavedOutfits Screen = "savedOutfits"
)

type ToastKind string

const (
	Success ToastKind = "success"
	Failure ToastKind = "error"
)

// ToastDuration is how long a toast stays visible.
const ToastDuration = 3 * time.Second

type Toast struct {
	Message string    `json:"message"`
	Kind    ToastKind `json:"kind"`
	Shown   time.Time `json:"shownAt"`
}

type State struct {
	Screen         Screen `json:"screen"`
	Toast          *Toast `json:"toast,omitempty"`
	SelectedOutfit int    `json:"selectedOutfit"`
}

// Action changes the state. Actions are applied one at a time.
type Action func(s *state)

type state struct {
	screen Screen
	toast  *Toast
	cursor recommend.Cursor
	// fingerprint of the recommendation set the cursor points into.
	fingerprint string
	now         time.Time
}

func Navigate(screen Screen) Action {
	return func(s *state) { s.screen = screen }
}

func ShowToast(message string, kind ToastKind) Action {
	return func(s *state) {
		s.toast = &Toast{Message: message, Kind: kind, Shown: s.now}
	}
}

func DismissToast() Action {
	return func(s *state) { s.toast = nil }
}

// NextOutfit selects the next of n recommended combos.
func NextOutfit(n int) Action {
	return func(s *state) { s.cursor.Next(n) }
}

func PrevOutfit(n int) Action {
	return func(s *state) { s.cursor.Prev(n) }
}

// ShowRecommendations points the cursor at a newly mirrored set of n combos.
// A different set starts again at its first combo.
func ShowRecommendations(fingerprint string, n int) Action {
	return func(s *state) {
		if fingerprint != s.fingerprint {
			s.fingerprint = fingerprint
			s.cursor = recommend.Cursor{}
		}
		s.cursor.Clamp(n)
	}
}

type Store struct {
	mu    sync.Mutex
	state state
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		state: state{screen: Login},
		now:   time.Now,
	}
}

func (st *Store) Dispatch(actions ...Action) State {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state.now = st.now()
	for _, a := range actions {
		a(&st.state)
	}
	return st.snapshot()
}

func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshot()
}

// Cursor returns the recommendation cursor for rendering the selected outfit.
func (st *Store) Cursor() recommend.Cursor {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.cursor
}

func (st *Store) snapshot() State {
	out := State{
		Screen:         st.state.screen,
		SelectedOutfit: st.state.cursor.Index(),
	}
	if t := st.state.toast; t != nil && st.now().Sub(t.Shown) < ToastDuration {
		toast := *t
		out.Toast = &toast
	}
	return out
}
