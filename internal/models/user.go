package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID             string     `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	HashedPassword *string    `db:"hashed_password" json:"-"`
	EmailVerified  bool       `db:"email_verified" json:"email_verified"`
	Image          *string    `db:"image" json:"image,omitempty"`
	Role           Role       `db:"role" json:"role"`
	Banned         *bool      `db:"banned" json:"banned,omitempty"`
	BanReason      *string    `db:"ban_reason" json:"ban_reason,omitempty"`
	BanExpires     *time.Time `db:"ban_expires" json:"ban_expires,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
