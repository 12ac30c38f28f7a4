package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// OutfitName generates a display name for a saved outfit by combining
// randomly selected words.
func OutfitName() string {
	return outfitName(rand.New(rand.NewSource(time.Now().UnixNano())))
}

func outfitName(r *rand.Rand) string {
	moods := []string{
		"Casual", "Sharp", "Cozy", "Bold", "Minimal",
		"Street", "Classic", "Weekend", "Monsoon", "Festive",
		"Breezy", "Layered", "Monochrome", "Vintage", "Sunday",
		"Off-duty", "Smart", "Relaxed", "Retro", "Everyday",
	}

	occasions := []string{
		"Brunch", "Office", "Date Night", "Airport", "Campus",
		"Gallery", "Rooftop", "Road Trip", "Wedding Guest", "Coffee Run",
		"Concert", "Market", "Beach", "Dinner", "Studio",
	}

	nouns := []string{
		"Fit", "Look", "Set", "Combo", "Edit",
		"Layer", "Uniform", "Vibe", "Drop", "Mix",
	}

	useOccasion := r.Float64() < 0.7 // 70% chance

	parts := []string{moods[r.Intn(len(moods))]}
	if useOccasion {
		parts = append(parts, occasions[r.Intn(len(occasions))])
	}
	parts = append(parts, nouns[r.Intn(len(nouns))])
	return strings.Join(parts, " ")
}

// ReceiptID generates a short order receipt reference.
func ReceiptID() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return fmt.Sprintf("rcpt_%d_%04d", time.Now().Unix(), r.Intn(10000))
}
