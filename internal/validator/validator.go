// Package validator checks crawled deal records against the constraint
// tags declared on the model before they reach the store.
package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/shonsungje/hotdeal-notifier/internal/models"
)

type DealValidator struct {
	validate *validator.Validate
}

func New() *DealValidator {
	return &DealValidator{validate: validator.New()}
}

// ValidateDeal reports why a record is unfit for persistence, nil when
// it is well formed.
func (v *DealValidator) ValidateDeal(rec models.DealRecord) error {
	if err := v.validate.Struct(rec); err != nil {
		return fmt.Errorf("deal %s failed validation: %w", rec.Key(), err)
	}
	return nil
}
