package mirror

import "styleSphere/models"

// View is the mirrored state for the active session. Values returned by
// Service.View are copies and safe to keep.
type View struct {
	UserID string `json:"userId"`
	// Local is true when the closet comes from the local fallback store.
	Local           bool                         `json:"local"`
	Closet          []models.ClosetItem          `json:"closet"`
	SavedOutfits    []models.SavedOutfit         `json:"savedOutfits"`
	Recommendations *models.RecommendedOutfitSet `json:"recommendations,omitempty"`
	Marketplace     []models.Listing             `json:"marketplace"`
	Version         int64                        `json:"version"`
}

// MyCloset returns the closet items owned by the current user.
func (v View) MyCloset() []models.ClosetItem {
	items := make([]models.ClosetItem, 0, len(v.Closet))
	for _, item := range v.Closet {
		if item.OwnerID == v.UserID {
			items = append(items, item)
		}
	}
	return items
}

// Listing finds a mirrored marketplace listing by id.
func (v View) Listing(id string) (models.Listing, bool) {
	for _, l := range v.Marketplace {
		if l.ID == id {
			return l, true
		}
	}
	return models.Listing{}, false
}

func (v View) clone() View {
	out := v
	out.Closet = append([]models.ClosetItem(nil), v.Closet...)
	out.SavedOutfits = append([]models.SavedOutfit(nil), v.SavedOutfits...)
	out.Marketplace = append([]models.Listing(nil), v.Marketplace...)
	if v.Recommendations != nil {
		recs := *v.Recommendations
		recs.Combos = append([]models.Combo(nil), v.Recommendations.Combos...)
		out.Recommendations = &recs
	}
	return out
}
