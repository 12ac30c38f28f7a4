package models

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func schemaValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks a schema value against its struct tags.
func Validate(v any) error {
	if err := schemaValidator().Struct(v); err != nil {
		return Invalid("%v", err)
	}
	return nil
}
