package models

import "fmt"

const (
	UsersCollection           = "users"
	ClosetCollection          = "closet"
	SavedOutfitsCollection    = "savedOutfits"
	RecommendationsCollection = "recommendations"
	MarketplaceCollection     = "marketplace"

	// RecommendationsDocID is the single derived document per user.
	RecommendationsDocID = "current"
)

// UserCollectionPath returns the path of a per-user collection.
func UserCollectionPath(userID, collection string) string {
	return fmt.Sprintf("%s/%s/%s", UsersCollection, userID, collection)
}

func ClosetPath(userID string) string {
	return UserCollectionPath(userID, ClosetCollection)
}

func SavedOutfitsPath(userID string) string {
	return UserCollectionPath(userID, SavedOutfitsCollection)
}

func RecommendationsPath(userID string) string {
	return UserCollectionPath(userID, RecommendationsCollection)
}
