package marketplace

import (
	"slices"
	"strings"

	"styleSphere/models"
)

// Filter narrows a listing catalog. Empty selections match everything.
type Filter struct {
	Categories   []models.Category
	Availability []models.Availability
	Genders      []models.Gender
	Query        string
}

func (f Filter) matches(l models.Listing) bool {
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, l.Category) {
		return false
	}
	if len(f.Availability) > 0 && !slices.Contains(f.Availability, l.Availability) {
		return false
	}
	if len(f.Genders) > 0 && !slices.Contains(f.Genders, l.Gender) {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		return strings.Contains(strings.ToLower(l.Name), strings.ToLower(q))
	}
	return true
}

// Browse returns the listings matching f, keeping their order.
func Browse(listings []models.Listing, f Filter) []models.Listing {
	result := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if f.matches(l) {
			result = append(result, l)
		}
	}
	return result
}
