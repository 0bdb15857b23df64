package model

import (
	"github.com/go-playground/validator/v10"

	"hallpass-backend/internal/apperr"
)

// DefaultThresholds are the global fallback escalation thresholds in minutes.
var DefaultThresholds = EscalationThresholds{Warning: 10, Alert: 20}

// EscalationThresholds is a warning/alert pair of durations in minutes.
// Alert must be strictly greater than warning.
type EscalationThresholds struct {
	Warning int `json:"warning" validate:"required,min=1,max=1440"`
	Alert   int `json:"alert" validate:"required,min=1,max=1440,gtfield=Warning"`
}

var validate = validator.New()

// Validate rejects out-of-range or mis-ordered threshold pairs.
func (t EscalationThresholds) Validate() error {
	if err := validate.Struct(t); err != nil {
		return apperr.Wrap(apperr.KindInvalidArgument, err, "invalid escalation thresholds")
	}
	return nil
}

// ValidateStruct runs tag-based validation on any request or entity struct,
// returning an InvalidArgument error on failure.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return apperr.Wrap(apperr.KindInvalidArgument, err, "validation failed")
	}
	return nil
}
