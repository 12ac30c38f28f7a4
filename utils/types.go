package utils

import (
	"fmt"

	"styleSphere/docstore"
	"styleSphere/models"
)

func ToPointer[T any](value T) *T {
	return &value
}

// DecodeAll converts docs into T and validates each one. Documents that fail
// are left out and reported in the returned errors.
func DecodeAll[T any](docs []docstore.Document) ([]T, []error) {
	result := make([]T, 0, len(docs))
	var errs []error
	for _, doc := range docs {
		item, err := docstore.Decode[T](doc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := models.Validate(item); err != nil {
			errs = append(errs, fmt.Errorf("doc %s: %w", doc.ID, err))
			continue
		}
		result = append(result, item)
	}
	return result, errs
}
