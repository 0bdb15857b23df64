package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hallpass-backend/internal/model"
)

// Store defines the interface for all database operations the pass state
// machine and escalation monitor depend on.
type Store interface {
	// Pass repository
	GetPass(ctx context.Context, id string) (*model.Pass, error)
	FindActivePassesByStudent(ctx context.Context, studentID string) ([]model.Pass, error)
	FindAllActivePasses(ctx context.Context) ([]model.Pass, error)
	CreatePass(ctx context.Context, pass *model.Pass, leg *model.PassLeg, event *model.PassEvent) error
	// UpdateActivePass applies fields to a pass only while it is still
	// active, appending any legs and events in the same transaction. It
	// fails with NotFound for unknown passes and FailedPrecondition for
	// passes already in a terminal state.
	UpdateActivePass(ctx context.Context, passID string, fields map[string]any, legs []*model.PassLeg, events []*model.PassEvent) error
	// UpdateEscalation writes only the escalation fields. Unlike
	// UpdateActivePass it does not require the pass to be active, so
	// clearing escalation after close stays idempotent.
	UpdateEscalation(ctx context.Context, passID string, level model.EscalationLevel, triggeredAt *time.Time) error
	FindLegs(ctx context.Context, passID string) ([]model.PassLeg, error)
	CreateEvent(ctx context.Context, event *model.PassEvent) error

	// Threshold sources
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	GetLocation(ctx context.Context, id string) (*model.Location, error)

	// Notification recipients and records
	FindApprovedAdmins(ctx context.Context) ([]model.User, error)
	CreateNotifications(ctx context.Context, notifications []model.Notification) error
	FindSubscriptionsByUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error

	// DB exposes the underlying handle for wiring (router, worker pool).
	DB() *gorm.DB
}
