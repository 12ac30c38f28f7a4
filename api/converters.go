package api

import (
	"errors"
	"net/http"
	"strconv"

	"styleSphere/models"
	"styleSphere/services/marketplace"
	"styleSphere/services/mirror"
	"styleSphere/services/recommend"
	"styleSphere/services/view"
	"styleSphere/utils"
)

// ErrorFor maps a domain error to a status code and response body.
func ErrorFor(err error) (int, Error) {
	var partial *models.PartialUploadError
	switch {
	case errors.As(err, &partial):
		return http.StatusBadGateway, Error{Code: "asset_uploaded_not_recorded", Message: err.Error()}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, Error{Code: "not_found", Message: err.Error()}
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, Error{Code: "forbidden", Message: err.Error()}
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, Error{Code: "invalid_input", Message: err.Error()}
	case errors.Is(err, models.ErrNoIdentity):
		return http.StatusUnauthorized, Error{Code: "no_identity", Message: err.Error()}
	}
	return http.StatusBadGateway, Error{Code: "upstream_error", Message: err.Error()}
}

func ToRecommendations(set *models.RecommendedOutfitSet, cursor recommend.Cursor) Recommendations {
	result := Recommendations{Combos: []models.Combo{}}
	if set != nil && set.Combos != nil {
		result.Combos = set.Combos
	}
	if set != nil {
		result.Fingerprint = set.Fingerprint
	}
	cursor.Clamp(len(result.Combos))
	result.SelectedIndex = cursor.Index()
	result.Outfit = cursor.Outfit(result.Combos)
	return result
}

func ToView(sess models.Session, v mirror.View, st view.State, cursor recommend.Cursor) View {
	return View{
		Session:         sess,
		Screen:          st.Screen,
		Toast:           st.Toast,
		Local:           v.Local,
		Closet:          v.MyCloset(),
		SavedOutfits:    nonNil(v.SavedOutfits),
		Recommendations: ToRecommendations(v.Recommendations, cursor),
		Marketplace:     nonNil(v.Marketplace),
		Version:         v.Version,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// ToFilter builds a browse filter from the query parameters.
func ToFilter(params BrowseMarketplaceParams) marketplace.Filter {
	var f marketplace.Filter
	if params.Q != nil {
		f.Query = *params.Q
	}
	for _, c := range deref(params.Category) {
		f.Categories = append(f.Categories, models.Category(c))
	}
	for _, a := range deref(params.Availability) {
		f.Availability = append(f.Availability, models.Availability(a))
	}
	for _, g := range deref(params.Gender) {
		f.Genders = append(f.Genders, models.Gender(g))
	}
	return f
}

func deref(values *[]string) []string {
	if values == nil {
		return nil
	}
	return *values
}

func parsePrice(raw string) (int64, error) {
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, models.Invalid("price %q is not a whole number", raw)
	}
	return price, nil
}

func ToNewListing(form ListingForm, filename string, data []byte) (marketplace.NewListing, error) {
	price, err := parsePrice(form.Price)
	if err != nil {
		return marketplace.NewListing{}, err
	}
	return marketplace.NewListing{
		Name:         form.Name,
		Price:        price,
		Category:     models.Category(form.Category),
		Availability: models.Availability(form.Availability),
		Gender:       models.Gender(form.Gender),
		Filename:     filename,
		Data:         data,
	}, nil
}

// ToListingUpdate keeps only the form fields that were sent.
func ToListingUpdate(form ListingForm, filename string, data []byte) (marketplace.ListingUpdate, error) {
	u := marketplace.ListingUpdate{Filename: filename, Data: data}
	if form.Name != "" {
		u.Name = utils.ToPointer(form.Name)
	}
	if form.Price != "" {
		price, err := parsePrice(form.Price)
		if err != nil {
			return u, err
		}
		u.Price = utils.ToPointer(price)
	}
	if form.Category != "" {
		u.Category = utils.ToPointer(models.Category(form.Category))
	}
	if form.Availability != "" {
		u.Availability = utils.ToPointer(models.Availability(form.Availability))
	}
	if form.Gender != "" {
		u.Gender = utils.ToPointer(models.Gender(form.Gender))
	}
	return u, nil
}
