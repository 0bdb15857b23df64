package model

import "time"

// PassStatus is the lifecycle status of a pass. A pass is created active and
// reaches exactly one terminal status; expired and cancelled are reserved
// terminal states that no core transition currently produces.
type PassStatus string

const (
	StatusActive    PassStatus = "active"
	StatusClosed    PassStatus = "closed"
	StatusExpired   PassStatus = "expired"
	StatusCancelled PassStatus = "cancelled"
)

// IsTerminal reports whether s is a terminal status.
func (s PassStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusExpired || s == StatusCancelled
}

// TransitState is the reduced two-state movement model kept for the legacy
// declare-departure/declare-return flow.
type TransitState string

const (
	TransitInClass   TransitState = "in_class"
	TransitInTransit TransitState = "in_transit"
)

// EscalationLevel marks how long a pass has been open relative to its
// thresholds. The empty string means not escalated.
type EscalationLevel string

const (
	LevelNone     EscalationLevel = ""
	LevelWarning  EscalationLevel = "warning"
	LevelAlert    EscalationLevel = "alert"
	LevelCritical EscalationLevel = "critical"
)

// escalationRank orders levels for rising-edge comparison.
var escalationRank = map[EscalationLevel]int{
	LevelNone:     0,
	LevelWarning:  1,
	LevelAlert:    2,
	LevelCritical: 3,
}

// Rank returns the severity rank of the level, 0 for none.
func (l EscalationLevel) Rank() int {
	return escalationRank[l]
}

// Pass is one hall-pass journey from creation to closure.
type Pass struct {
	ID                    string     `gorm:"primaryKey;size:36" json:"id"`
	StudentID             string     `gorm:"size:64;not null;index;uniqueIndex:uniq_active_pass_per_student,where:status = 'active'" json:"studentId"`
	StudentName           string     `gorm:"size:128;not null" json:"studentName"`
	OriginLocationID      string     `gorm:"size:64;not null" json:"originLocationId"`
	OriginLocationName    string     `gorm:"size:128;not null" json:"originLocationName"`
	DestinationLocationID string     `gorm:"size:64;not null" json:"destinationLocationId"`
	DestinationLocationName string   `gorm:"size:128;not null" json:"destinationLocationName"`
	CurrentLocationID     string     `gorm:"size:64" json:"currentLocationId"`
	Status                PassStatus `gorm:"size:16;not null;index" json:"status"`
	TransitState          TransitState `gorm:"size:16;not null" json:"transitState"`
	OpenedAt              time.Time  `gorm:"not null" json:"openedAt"`
	ClosedAt              *time.Time `json:"closedAt"`
	// TotalDuration is whole minutes from openedAt to closedAt, set at close.
	TotalDuration         *int            `json:"totalDuration"`
	EscalationLevel       EscalationLevel `gorm:"size:16;index" json:"escalationLevel"`
	EscalationTriggeredAt *time.Time      `json:"escalationTriggeredAt"`
	IssuedByID            string          `gorm:"size:64;not null" json:"issuedById"`
	IssuedByName          string          `gorm:"size:128;not null" json:"issuedByName"`
	IsOverride            bool            `gorm:"not null" json:"isOverride"`
	Notes                 string          `gorm:"size:1024" json:"notes"`
	CreatedAt             time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt             time.Time       `gorm:"not null" json:"updatedAt"`
}

// LegDirection is the movement direction recorded on a pass leg.
type LegDirection string

const (
	DirectionOut LegDirection = "out"
	DirectionIn  LegDirection = "in"
)

// PassLeg is one immutable movement event within a pass's life, ordered by
// LegNumber per pass.
type PassLeg struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	PassID       string       `gorm:"size:36;not null;index" json:"passId"`
	LegNumber    int          `gorm:"not null" json:"legNumber"`
	StudentID    string       `gorm:"size:64;not null" json:"studentId"`
	LocationID   string       `gorm:"size:64;not null" json:"locationId"`
	LocationName string       `gorm:"size:128;not null" json:"locationName"`
	ActorID      string       `gorm:"size:64;not null" json:"actorId"`
	ActorName    string       `gorm:"size:128;not null" json:"actorName"`
	Direction    LegDirection `gorm:"size:8;not null" json:"direction"`
	// DurationFromPrevious is whole minutes since the previous leg, nil on
	// the opening leg.
	DurationFromPrevious *int      `json:"durationFromPrevious"`
	CreatedAt            time.Time `gorm:"not null" json:"createdAt"`
}

// PassEventType labels entries in the append-only pass event log.
type PassEventType string

const (
	EventPassCreated     PassEventType = "PASS_CREATED"
	EventLeftClass       PassEventType = "LEFT_CLASS"
	EventCheckedIn       PassEventType = "CHECKED_IN"
	EventReturnedToClass PassEventType = "RETURNED_TO_CLASS"
	EventEscalated       PassEventType = "ESCALATED"
)

// PassEvent is an append-only audit record of a pass transition.
type PassEvent struct {
	ID        string        `gorm:"primaryKey;size:36"`
	PassID    string        `gorm:"size:36;not null;index"`
	StudentID string        `gorm:"size:64;not null"`
	ActorID   string        `gorm:"size:64;not null"`
	EventType PassEventType `gorm:"size:32;not null"`
	CreatedAt time.Time     `gorm:"not null"`
}
