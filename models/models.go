package models

import (
	"strings"
	"time"
)

type Category string

const (
	Tops     Category = "Tops"
	Bottoms  Category = "Bottoms"
	Footwear Category = "Footwear"
)

// RequiredCategories is the fixed order items appear in within a combo.
var RequiredCategories = []Category{Tops, Bottoms, Footwear}

func (c Category) Valid() bool {
	switch c {
	case Tops, Bottoms, Footwear:
		return true
	}
	return false
}

type Availability string

const (
	Buy  Availability = "buy"
	Rent Availability = "rent"
)

type Gender string

const (
	Mens   Gender = "Mens"
	Womens Gender = "Womens"
	Unisex Gender = "Unisex"
)

// LocalIDPrefix marks closet items persisted by the local fallback path.
const LocalIDPrefix = "local-"

// IsLocalID reports whether id was assigned by the local fallback path.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

type ClosetItem struct {
	ID        string    `json:"id" validate:"required"`
	OwnerID   string    `json:"ownerId"`
	Category  Category  `json:"category" validate:"required,oneof=Tops Bottoms Footwear"`
	ImageURL  string    `json:"imageUrl" validate:"required"`
	AssetID   string    `json:"assetId,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Private   bool      `json:"private"`
}

// Snapshot copies the fields an outfit keeps about an item.
func (c ClosetItem) Snapshot() ItemSnapshot {
	return ItemSnapshot{
		ID:       c.ID,
		Category: c.Category,
		ImageURL: c.ImageURL,
	}
}

type ItemSnapshot struct {
	ID       string   `json:"id" structs:"id" validate:"required"`
	Category Category `json:"category" structs:"category" validate:"required,oneof=Tops Bottoms Footwear"`
	ImageURL string   `json:"imageUrl" structs:"imageUrl" validate:"required"`
}

type SavedOutfit struct {
	ID        string         `json:"id" validate:"required"`
	Name      string         `json:"name,omitempty"`
	Items     []ItemSnapshot `json:"items" validate:"required,min=1,dive"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Complete reports whether every required category is represented.
func (o SavedOutfit) Complete() bool {
	return coversCategories(o.Items)
}

type Combo struct {
	Items []ItemSnapshot `json:"items" structs:"items" validate:"len=3,dive"`
}

// Item returns the combo's item for category, if present.
func (c Combo) Item(category Category) (ItemSnapshot, bool) {
	for _, item := range c.Items {
		if item.Category == category {
			return item, true
		}
	}
	return ItemSnapshot{}, false
}

type RecommendedOutfitSet struct {
	Combos      []Combo   `json:"combos" validate:"max=3,dive"`
	Fingerprint string    `json:"fingerprint"`
	ComputedAt  time.Time `json:"computedAt"`
}

type Listing struct {
	ID           string       `json:"id" validate:"required"`
	OwnerID      string       `json:"ownerId" validate:"required"`
	Name         string       `json:"name" validate:"required"`
	Price        int64        `json:"price" validate:"gt=0"`
	Category     Category     `json:"category" validate:"required,oneof=Tops Bottoms Footwear"`
	Availability Availability `json:"availability" validate:"required,oneof=buy rent"`
	Gender       Gender       `json:"gender" validate:"required,oneof=Mens Womens Unisex"`
	ImageURL     string       `json:"imageUrl" validate:"required,url"`
	AssetID      string       `json:"assetId,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email,omitempty"`
	DisplayName    string    `json:"displayName,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

type Session struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsReady     bool   `json:"isReady"`
}

// Authenticated reports whether an identity has been established.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

type Receipt struct {
	OrderID     string    `json:"orderId"`
	PaymentID   string    `json:"paymentId"`
	ListingID   string    `json:"listingId,omitempty"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Description string    `json:"description"`
	PaidAt      time.Time `json:"paidAt"`
}

func coversCategories(items []ItemSnapshot) bool {
	seen := map[Category]bool{}
	for _, item := range items {
		seen[item.Category] = true
	}
	for _, c := range RequiredCategories {
		if !seen[c] {
			return false
		}
	}
	return true
}
