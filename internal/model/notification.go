package model

import "time"

// NotificationType labels why a notification was generated.
type NotificationType string

const (
	NotifyEscalation   NotificationType = "escalation"
	NotifyPassCreated  NotificationType = "pass_created"
	NotifyPassReturned NotificationType = "pass_returned"
	NotifySystem       NotificationType = "system"
)

// Notification is a stored message addressed to one user. Delivery over web
// push is best-effort; the row is the durable record.
type Notification struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	UserID    string           `gorm:"size:64;not null;index" json:"userId"`
	Type      NotificationType `gorm:"size:24;not null" json:"type"`
	Severity  EscalationLevel  `gorm:"size:16" json:"severity"`
	Title     string           `gorm:"size:256;not null" json:"title"`
	Message   string           `gorm:"size:1024;not null" json:"message"`
	PassID    string           `gorm:"size:36;index" json:"passId"`
	IsRead    bool             `gorm:"not null" json:"isRead"`
	CreatedAt time.Time        `gorm:"not null" json:"createdAt"`
	ReadAt    *time.Time       `json:"readAt"`
}
