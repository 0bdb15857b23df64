package pass

import (
	"context"
	"math"

	"github.com/google/uuid"

	"hallpass-backend/internal/apperr"
	"hallpass-backend/internal/clock"
	"hallpass-backend/internal/model"
	"hallpass-backend/internal/store"
)

// Service is the pass state machine. It exclusively owns write access to
// pass status and location fields; the escalation monitor writes only the
// escalation fields through its own store path.
type Service struct {
	store store.Store
	clock clock.Clock
}

// NewService creates a pass service.
func NewService(s store.Store, clk clock.Clock) *Service {
	return &Service{store: s, clock: clk}
}

// CreateRequest carries everything needed to open a pass.
type CreateRequest struct {
	StudentID               string `json:"studentId" validate:"required"`
	StudentName             string `json:"studentName" validate:"required"`
	OriginLocationID        string `json:"originLocationId" validate:"required"`
	OriginLocationName      string `json:"originLocationName" validate:"required"`
	DestinationLocationID   string `json:"destinationLocationId" validate:"required,nefield=OriginLocationID"`
	DestinationLocationName string `json:"destinationLocationName" validate:"required"`
	IssuedByID              string `json:"issuedById" validate:"required"`
	IssuedByName            string `json:"issuedByName" validate:"required"`
	IsOverride              bool   `json:"isOverride"`
	Notes                   string `json:"notes"`
}

// Create opens a new pass for a student. At most one active pass may exist
// per student; the store enforces this atomically, so two concurrent
// creations cannot both succeed.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	if err := model.ValidateStruct(req); err != nil {
		return "", err
	}
	if req.OriginLocationID == req.DestinationLocationID {
		return "", apperr.New(apperr.KindInvalidArgument, "origin and destination locations must be different")
	}

	now := s.clock.Now()
	pass := &model.Pass{
		ID:                      uuid.NewString(),
		StudentID:               req.StudentID,
		StudentName:             req.StudentName,
		OriginLocationID:        req.OriginLocationID,
		OriginLocationName:      req.OriginLocationName,
		DestinationLocationID:   req.DestinationLocationID,
		DestinationLocationName: req.DestinationLocationName,
		CurrentLocationID:       req.DestinationLocationID,
		Status:                  model.StatusActive,
		TransitState:            model.TransitInTransit,
		OpenedAt:                now,
		IssuedByID:              req.IssuedByID,
		IssuedByName:            req.IssuedByName,
		IsOverride:              req.IsOverride,
		Notes:                   req.Notes,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	leg := &model.PassLeg{
		ID:           uuid.NewString(),
		PassID:       pass.ID,
		StudentID:    req.StudentID,
		LocationID:   req.OriginLocationID,
		LocationName: req.OriginLocationName,
		ActorID:      req.IssuedByID,
		ActorName:    req.IssuedByName,
		Direction:    model.DirectionOut,
		CreatedAt:    now,
	}
	event := &model.PassEvent{
		ID:        uuid.NewString(),
		PassID:    pass.ID,
		StudentID: req.StudentID,
		ActorID:   req.IssuedByID,
		EventType: model.EventPassCreated,
		CreatedAt: now,
	}

	if err := s.store.CreatePass(ctx, pass, leg, event); err != nil {
		return "", err
	}
	return pass.ID, nil
}

// CheckIn records the student arriving at a check-in eligible location and
// moves the pass's current location there.
func (s *Service) CheckIn(ctx context.Context, passID, locationID, actorID, actorName string) error {
	pass, err := s.store.GetPass(ctx, passID)
	if err != nil {
		return err
	}
	if pass.Status != model.StatusActive {
		return apperr.New(apperr.KindFailedPrecondition, "cannot check in on a %s pass", pass.Status)
	}

	location, err := s.store.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}
	if !location.CheckInEligible() {
		return apperr.New(apperr.KindFailedPrecondition, "location %s does not support check-in", locationID)
	}

	now := s.clock.Now()
	leg := &model.PassLeg{
		ID:           uuid.NewString(),
		PassID:       passID,
		StudentID:    pass.StudentID,
		LocationID:   locationID,
		LocationName: location.Name,
		ActorID:      actorID,
		ActorName:    actorName,
		Direction:    model.DirectionOut,
		CreatedAt:    now,
	}
	event := &model.PassEvent{
		ID:        uuid.NewString(),
		PassID:    passID,
		StudentID: pass.StudentID,
		ActorID:   actorID,
		EventType: model.EventCheckedIn,
		CreatedAt: now,
	}
	return s.store.UpdateActivePass(ctx, passID,
		map[string]any{"current_location_id": locationID, "updated_at": now},
		[]*model.PassLeg{leg}, []*model.PassEvent{event})
}

// Return closes an active pass: status becomes closed, the total duration is
// recorded and the escalation fields are cleared since the pass is no longer
// monitored.
func (s *Service) Return(ctx context.Context, passID, actorID, actorName string) error {
	pass, err := s.store.GetPass(ctx, passID)
	if err != nil {
		return err
	}
	if pass.Status != model.StatusActive {
		return apperr.New(apperr.KindFailedPrecondition, "cannot return a %s pass", pass.Status)
	}
	return s.closePass(ctx, pass, actorID, actorName)
}

// DeclareDeparture is the legacy two-state surface: IN_CLASS -> IN_TRANSIT.
// Invalid combinations raise instead of silently no-oping so client bugs
// surface.
func (s *Service) DeclareDeparture(ctx context.Context, passID, actorID string) error {
	pass, err := s.store.GetPass(ctx, passID)
	if err != nil {
		return err
	}
	if pass.Status != model.StatusActive {
		return apperr.New(apperr.KindFailedPrecondition, "cannot declare departure on a %s pass", pass.Status)
	}
	if pass.TransitState != model.TransitInClass {
		return apperr.New(apperr.KindFailedPrecondition, "pass %s is already in transit", passID)
	}

	now := s.clock.Now()
	event := &model.PassEvent{
		ID:        uuid.NewString(),
		PassID:    passID,
		StudentID: pass.StudentID,
		ActorID:   actorID,
		EventType: model.EventLeftClass,
		CreatedAt: now,
	}
	return s.store.UpdateActivePass(ctx, passID,
		map[string]any{"transit_state": model.TransitInTransit, "updated_at": now},
		nil, []*model.PassEvent{event})
}

// DeclareReturn is the legacy two-state surface: IN_TRANSIT -> IN_CLASS,
// which simultaneously closes the pass.
func (s *Service) DeclareReturn(ctx context.Context, passID, actorID string) error {
	pass, err := s.store.GetPass(ctx, passID)
	if err != nil {
		return err
	}
	if pass.Status != model.StatusActive {
		return apperr.New(apperr.KindFailedPrecondition, "cannot declare return on a %s pass", pass.Status)
	}
	if pass.TransitState != model.TransitInTransit {
		return apperr.New(apperr.KindFailedPrecondition, "pass %s is not in transit", passID)
	}
	return s.closePass(ctx, pass, actorID, pass.StudentName)
}

// closePass performs the shared close transition. The conditional update on
// status = active means a concurrent close loses with FailedPrecondition
// rather than double-writing.
func (s *Service) closePass(ctx context.Context, pass *model.Pass, actorID, actorName string) error {
	now := s.clock.Now()
	totalDuration := int(math.Round(now.Sub(pass.OpenedAt).Minutes()))
	if totalDuration < 0 {
		totalDuration = 0
	}

	fields := map[string]any{
		"status":                  model.StatusClosed,
		"transit_state":           model.TransitInClass,
		"closed_at":               now,
		"total_duration":          totalDuration,
		"current_location_id":     pass.OriginLocationID,
		"escalation_level":        model.LevelNone,
		"escalation_triggered_at": nil,
		"updated_at":              now,
	}
	leg := &model.PassLeg{
		ID:           uuid.NewString(),
		PassID:       pass.ID,
		StudentID:    pass.StudentID,
		LocationID:   pass.OriginLocationID,
		LocationName: pass.OriginLocationName,
		ActorID:      actorID,
		ActorName:    actorName,
		Direction:    model.DirectionIn,
		CreatedAt:    now,
	}
	event := &model.PassEvent{
		ID:        uuid.NewString(),
		PassID:    pass.ID,
		StudentID: pass.StudentID,
		ActorID:   actorID,
		EventType: model.EventReturnedToClass,
		CreatedAt: now,
	}
	return s.store.UpdateActivePass(ctx, pass.ID, fields, []*model.PassLeg{leg}, []*model.PassEvent{event})
}

// Get returns a pass with its legs.
func (s *Service) Get(ctx context.Context, passID string) (*model.Pass, []model.PassLeg, error) {
	pass, err := s.store.GetPass(ctx, passID)
	if err != nil {
		return nil, nil, err
	}
	legs, err := s.store.FindLegs(ctx, passID)
	if err != nil {
		return nil, nil, err
	}
	return pass, legs, nil
}
