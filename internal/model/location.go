package model

import "time"

// LocationType categorizes a location for pass rules. Restrooms are never
// check-in eligible.
type LocationType string

const (
	LocationClassroom LocationType = "classroom"
	LocationRestroom  LocationType = "restroom"
	LocationOffice    LocationType = "office"
	LocationLibrary   LocationType = "library"
	LocationCafeteria LocationType = "cafeteria"
	LocationGym       LocationType = "gym"
	LocationOther     LocationType = "other"
)

// Location is a place a pass can originate from or target.
type Location struct {
	ID               string       `gorm:"primaryKey;size:64" json:"id"`
	Name             string       `gorm:"size:128;not null" json:"name"`
	ShortName        string       `gorm:"size:20" json:"shortName"`
	Type             LocationType `gorm:"size:16;not null" json:"type"`
	IsCheckInEligible bool        `gorm:"not null" json:"isCheckInEligible"`
	// Optional per-location escalation thresholds; both nil means unset.
	EscalationWarningMin *int      `json:"escalationWarningMin"`
	EscalationAlertMin   *int      `json:"escalationAlertMin"`
	IsActive             bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt            time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt            time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	StaffAssignments []StaffAssignment `gorm:"foreignKey:LocationID" json:"staffAssignments,omitempty"`
}

// Thresholds returns the location's threshold pair if both values are set.
func (l *Location) Thresholds() (EscalationThresholds, bool) {
	if l.EscalationWarningMin == nil || l.EscalationAlertMin == nil {
		return EscalationThresholds{}, false
	}
	return EscalationThresholds{Warning: *l.EscalationWarningMin, Alert: *l.EscalationAlertMin}, true
}

// CheckInEligible reports whether the location accepts check-ins. The
// restroom rule holds regardless of how the row was stored.
func (l *Location) CheckInEligible() bool {
	return l.IsCheckInEligible && l.Type != LocationRestroom
}

// StaffAssignment links a staff member to a location they supervise.
type StaffAssignment struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	LocationID string `gorm:"size:64;not null;index"`
	StaffID    string `gorm:"size:64;not null"`
	StaffName  string `gorm:"size:128;not null"`
	IsPrimary  bool   `gorm:"not null"`
}
