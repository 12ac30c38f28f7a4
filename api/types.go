package api

import (
	"styleSphere/models"
	"styleSphere/services/view"
)

type Pong struct {
	Ping string `json:"ping"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CategoryUpdate struct {
	Category models.Category `json:"category" binding:"required"`
}

type SaveOutfitRequest struct {
	ItemIDs []string `json:"itemIds" binding:"required"`
	Name    string   `json:"name"`
}

type CompleteCheckoutRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// ListingForm is the multipart form for creating or editing a listing.
type ListingForm struct {
	Name         string `form:"name"`
	Price        string `form:"price"`
	Category     string `form:"category"`
	Availability string `form:"availability"`
	Gender       string `form:"gender"`
}

type Recommendations struct {
	SelectedIndex int                                      `json:"selectedIndex"`
	Combos        []models.Combo                           `json:"combos"`
	Outfit        map[models.Category]*models.ItemSnapshot `json:"outfit"`
	Fingerprint   string                                   `json:"fingerprint,omitempty"`
}

type ProfilePicture struct {
	URL string `json:"url"`
}

type View struct {
	Session         models.Session       `json:"session"`
	Screen          view.Screen          `json:"screen"`
	Toast           *view.Toast          `json:"toast,omitempty"`
	Local           bool                 `json:"local"`
	Closet          []models.ClosetItem  `json:"closet"`
	SavedOutfits    []models.SavedOutfit `json:"savedOutfits"`
	Recommendations Recommendations      `json:"recommendations"`
	Marketplace     []models.Listing     `json:"marketplace"`
	Version         int64                `json:"version"`
}
