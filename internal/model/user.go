package model

import "time"

// UserRole is the coarse role assigned to an account.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleSupport UserRole = "support"
	RoleAdmin   UserRole = "admin"
)

// UserStatus is the account approval state.
type UserStatus string

const (
	UserPending  UserStatus = "pending"
	UserApproved UserStatus = "approved"
	UserBlocked  UserStatus = "blocked"
)

// User is an account known to the pass system. Authentication happens
// upstream; the core only reads role and status.
type User struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	Email       string     `gorm:"size:256;not null" json:"email"`
	DisplayName string     `gorm:"size:128;not null" json:"displayName"`
	Role        UserRole   `gorm:"size:16;not null;index" json:"role"`
	Status      UserStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt   time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updatedAt"`
}
