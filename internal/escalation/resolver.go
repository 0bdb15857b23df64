package escalation

import (
	"context"
	"log"

	"hallpass-backend/internal/apperr"
	"hallpass-backend/internal/model"
	"hallpass-backend/internal/store"
)

// Resolver determines the applicable escalation thresholds for a pass.
// Lookup precedence: student, then destination location, then the first
// group of the student carrying thresholds, then the configured defaults.
// Resolution never fails outward; lookup errors degrade to defaults.
type Resolver struct {
	store    store.Store
	defaults model.EscalationThresholds
}

// NewResolver creates a Resolver with the given fallback thresholds.
func NewResolver(s store.Store, defaults model.EscalationThresholds) *Resolver {
	if defaults.Validate() != nil {
		defaults = model.DefaultThresholds
	}
	return &Resolver{store: s, defaults: defaults}
}

// Resolve returns the thresholds governing the given pass.
func (r *Resolver) Resolve(ctx context.Context, pass *model.Pass) model.EscalationThresholds {
	student, err := r.store.GetStudent(ctx, pass.StudentID)
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		log.Printf("Threshold lookup failed for student %s: %v. Using defaults.", pass.StudentID, err)
		return r.defaults
	}
	if student != nil {
		if th, ok := student.Thresholds(); ok {
			return r.validated(th, "student "+student.ID)
		}
	}

	location, err := r.store.GetLocation(ctx, pass.DestinationLocationID)
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		log.Printf("Threshold lookup failed for location %s: %v. Using defaults.", pass.DestinationLocationID, err)
		return r.defaults
	}
	if location != nil {
		if th, ok := location.Thresholds(); ok {
			return r.validated(th, "location "+location.ID)
		}
	}

	if student != nil {
		for _, group := range student.Groups {
			if th, ok := group.Thresholds(); ok {
				return r.validated(th, "group "+group.ID)
			}
		}
	}

	return r.defaults
}

// validated guards against mis-ordered pairs stored before validation was
// enforced at the boundary.
func (r *Resolver) validated(th model.EscalationThresholds, source string) model.EscalationThresholds {
	if err := th.Validate(); err != nil {
		log.Printf("Ignoring invalid thresholds from %s: %v. Using defaults.", source, err)
		return r.defaults
	}
	return th
}
