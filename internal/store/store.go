package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"hallpass-backend/internal/apperr"
	"hallpass-backend/internal/model"
)

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetPass(ctx context.Context, id string) (*model.Pass, error) {
	var pass model.Pass
	err := s.db.WithContext(ctx).First(&pass, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "pass %s not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch pass %s", id)
	}
	return &pass, nil
}

func (s *gormStore) FindActivePassesByStudent(ctx context.Context, studentID string) ([]model.Pass, error) {
	var passes []model.Pass
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, model.StatusActive).
		Order("opened_at DESC").
		Find(&passes).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch active passes for student %s", studentID)
	}
	return passes, nil
}

func (s *gormStore) FindAllActivePasses(ctx context.Context) ([]model.Pass, error) {
	var passes []model.Pass
	err := s.db.WithContext(ctx).
		Where("status = ?", model.StatusActive).
		Order("opened_at ASC").
		Find(&passes).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch active passes")
	}
	return passes, nil
}

// CreatePass persists a new pass together with its opening leg and event
// record. The check-then-insert runs inside one transaction, and a partial
// unique index on (student_id) WHERE status = 'active' backstops the
// single-active-pass invariant against concurrent creations.
func (s *gormStore) CreatePass(ctx context.Context, pass *model.Pass, leg *model.PassLeg, event *model.PassEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Pass{}).
			Where("student_id = ? AND status = ?", pass.StudentID, model.StatusActive).
			Count(&count).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "failed to check active passes for student %s", pass.StudentID)
		}
		if count > 0 {
			return apperr.New(apperr.KindFailedPrecondition, "student %s already has an active pass", pass.StudentID)
		}

		if err := tx.Create(pass).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Wrap(apperr.KindFailedPrecondition, err, "student %s already has an active pass", pass.StudentID)
			}
			return apperr.Wrap(apperr.KindInternal, err, "failed to create pass")
		}
		if leg != nil {
			if err := appendLeg(tx, leg); err != nil {
				return err
			}
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return apperr.Wrap(apperr.KindInternal, err, "failed to record pass event")
			}
		}
		return nil
	})
	return err
}

func (s *gormStore) UpdateActivePass(ctx context.Context, passID string, fields map[string]any, legs []*model.PassLeg, events []*model.PassEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Pass{}).
			Where("id = ? AND status = ?", passID, model.StatusActive).
			Updates(fields)
		if res.Error != nil {
			return apperr.Wrap(apperr.KindInternal, res.Error, "failed to update pass %s", passID)
		}
		if res.RowsAffected == 0 {
			// Distinguish a missing pass from one already closed.
			var pass model.Pass
			err := tx.First(&pass, "id = ?", passID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, "pass %s not found", passID)
			}
			if err != nil {
				return apperr.Wrap(apperr.KindInternal, err, "failed to fetch pass %s", passID)
			}
			return apperr.New(apperr.KindFailedPrecondition, "pass %s is %s, not active", passID, pass.Status)
		}
		for _, leg := range legs {
			if err := appendLeg(tx, leg); err != nil {
				return err
			}
		}
		for _, event := range events {
			if err := tx.Create(event).Error; err != nil {
				return apperr.Wrap(apperr.KindInternal, err, "failed to record pass event")
			}
		}
		return nil
	})
}

func (s *gormStore) UpdateEscalation(ctx context.Context, passID string, level model.EscalationLevel, triggeredAt *time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.Pass{}).
		Where("id = ?", passID).
		Updates(map[string]any{
			"escalation_level":        level,
			"escalation_triggered_at": triggeredAt,
		})
	if res.Error != nil {
		return apperr.Wrap(apperr.KindInternal, res.Error, "failed to update escalation for pass %s", passID)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "pass %s not found", passID)
	}
	return nil
}

func (s *gormStore) FindLegs(ctx context.Context, passID string) ([]model.PassLeg, error) {
	var legs []model.PassLeg
	err := s.db.WithContext(ctx).
		Where("pass_id = ?", passID).
		Order("leg_number ASC").
		Find(&legs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch legs for pass %s", passID)
	}
	return legs, nil
}

// appendLeg assigns the next sequential leg number and the elapsed minutes
// from the previous leg before inserting.
func appendLeg(tx *gorm.DB, leg *model.PassLeg) error {
	var last model.PassLeg
	err := tx.Where("pass_id = ?", leg.PassID).
		Order("leg_number DESC").
		First(&last).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		leg.LegNumber = 1
	case err != nil:
		return apperr.Wrap(apperr.KindInternal, err, "failed to fetch last leg for pass %s", leg.PassID)
	default:
		leg.LegNumber = last.LegNumber + 1
		minutes := int(leg.CreatedAt.Sub(last.CreatedAt).Minutes())
		if minutes < 0 {
			minutes = 0
		}
		leg.DurationFromPrevious = &minutes
	}
	if err := tx.Create(leg).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to append leg for pass %s", leg.PassID)
	}
	return nil
}

func (s *gormStore) CreateEvent(ctx context.Context, event *model.PassEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to record pass event")
	}
	return nil
}

func (s *gormStore) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := s.db.WithContext(ctx).Preload("Groups").First(&student, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "student %s not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch student %s", id)
	}
	return &student, nil
}

func (s *gormStore) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	var location model.Location
	err := s.db.WithContext(ctx).Preload("StaffAssignments").First(&location, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "location %s not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch location %s", id)
	}
	return &location, nil
}

func (s *gormStore) FindApprovedAdmins(ctx context.Context) ([]model.User, error) {
	var admins []model.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND status = ?", model.RoleAdmin, model.UserApproved).
		Find(&admins).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch admins")
	}
	return admins, nil
}

func (s *gormStore) CreateNotifications(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to create notifications")
	}
	return nil
}

func (s *gormStore) FindSubscriptionsByUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch subscriptions for user %s", userID)
	}
	return subs, nil
}

func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription) error {
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to save subscription")
	}
	return nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{}, "endpoint = ?", endpoint).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to delete subscription %s", endpoint)
	}
	return nil
}

// isUniqueViolation matches duplicate-key errors across the postgres and
// sqlite drivers.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(strings.ToUpper(msg), "UNIQUE")
}
