package view

import (
	"testing"
	"time"
)

func TestDispatch(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore()
	st.now = func() time.Time { return now }

	if got := st.State().Screen; got != Login {
		t.Errorf("initial screen = %s, want login", got)
	}

	tests := []struct {
		name       string
		actions    []Action
		wantScreen Screen
		wantIndex  int
	}{
		{"navigate", []Action{Navigate(Dashboard)}, Dashboard, 0},
		{"previous wraps to last", []Action{PrevOutfit(3)}, Dashboard, 2},
		{"next wraps to first", []Action{NextOutfit(3)}, Dashboard, 0},
		{"next moves forward", []Action{NextOutfit(3), NextOutfit(3)}, Dashboard, 2},
		{"no combos resets", []Action{NextOutfit(0), Navigate(Closet)}, Closet, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := st.Dispatch(tt.actions...)
			if got.Screen != tt.wantScreen || got.SelectedOutfit != tt.wantIndex {
				t.Errorf("Dispatch() = %+v, want screen %s index %d", got, tt.wantScreen, tt.wantIndex)
			}
		})
	}
}

func TestToastExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore()
	st.now = func() time.Time { return now }

	got := st.Dispatch(ShowToast("Item uploaded", Success))
	if got.Toast == nil || got.Toast.Message != "Item uploaded" {
		t.Fatalf("toast = %+v", got.Toast)
	}
	now = now.Add(ToastDuration - time.Millisecond)
	if st.State().Toast == nil {
		t.Errorf("toast hidden too early")
	}
	now = now.Add(time.Millisecond)
	if st.State().Toast != nil {
		t.Errorf("toast still visible after %s", ToastDuration)
	}

	st.Dispatch(ShowToast("Upload failed", Failure), DismissToast())
	if st.State().Toast != nil {
		t.Errorf("dismissed toast still visible")
	}
}

func TestShowRecommendationsResetsCursor(t *testing.T) {
	tests := []struct {
		name    string
		actions []Action
		want    int
	}{
		{"new set starts at first combo", []Action{ShowRecommendations("a", 3), NextOutfit(3), NextOutfit(3), ShowRecommendations("b", 3)}, 0},
		{"same set keeps selection", []Action{ShowRecommendations("a", 3), NextOutfit(3), ShowRecommendations("a", 3)}, 1},
		{"same set with fewer combos clamps", []Action{ShowRecommendations("a", 3), PrevOutfit(3), ShowRecommendations("a", 1)}, 0},
		{"set removed", []Action{ShowRecommendations("a", 3), NextOutfit(3), ShowRecommendations("", 0)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewStore().Dispatch(tt.actions...)
			if got.SelectedOutfit != tt.want {
				t.Errorf("SelectedOutfit = %d, want %d", got.SelectedOutfit, tt.want)
			}
		})
	}
}
