package model

import "time"

// Student is a pass-holder. Thresholds here take precedence over location
// and group thresholds.
type Student struct {
	ID            string `gorm:"primaryKey;size:64" json:"id"`
	UserID        string `gorm:"size:64;not null;uniqueIndex" json:"userId"`
	StudentNumber string `gorm:"size:20" json:"studentNumber"`
	FirstName     string `gorm:"size:50;not null" json:"firstName"`
	LastName      string `gorm:"size:50;not null" json:"lastName"`
	Grade         int    `json:"grade"`
	EscalationWarningMin *int      `json:"escalationWarningMin"`
	EscalationAlertMin   *int      `json:"escalationAlertMin"`
	IsActive             bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt            time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt            time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Groups []*Group `gorm:"many2many:student_group_membership;" json:"groups,omitempty"`
}

// Thresholds returns the student's threshold pair if both values are set.
func (s *Student) Thresholds() (EscalationThresholds, bool) {
	if s.EscalationWarningMin == nil || s.EscalationAlertMin == nil {
		return EscalationThresholds{}, false
	}
	return EscalationThresholds{Warning: *s.EscalationWarningMin, Alert: *s.EscalationAlertMin}, true
}

// Group is a named set of students that may carry its own thresholds.
type Group struct {
	ID                   string    `gorm:"primaryKey;size:64" json:"id"`
	Name                 string    `gorm:"size:100;not null" json:"name"`
	EscalationWarningMin *int      `json:"escalationWarningMin"`
	EscalationAlertMin   *int      `json:"escalationAlertMin"`
	IsActive             bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt            time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt            time.Time `gorm:"not null" json:"updatedAt"`
}

// Thresholds returns the group's threshold pair if both values are set.
func (g *Group) Thresholds() (EscalationThresholds, bool) {
	if g.EscalationWarningMin == nil || g.EscalationAlertMin == nil {
		return EscalationThresholds{}, false
	}
	return EscalationThresholds{Warning: *g.EscalationWarningMin, Alert: *g.EscalationAlertMin}, true
}
