package models

import "time"

// Session holds the server-side half of a login. The raw token handed to
// the client is never stored; TokenHash is its SHA-256 digest and the id
// is a separate random identifier.
type Session struct {
	ID                   string    `db:"id" json:"id"`
	TokenHash            string    `db:"token_hash" json:"-"`
	UserID               string    `db:"user_id" json:"user_id"`
	ExpiresAt            time.Time `db:"expires_at" json:"expires_at"`
	ActiveOrganizationID *string   `db:"active_organization_id" json:"active_organization_id,omitempty"`
	IPAddress            *string   `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent            *string   `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// RequestMeta is captured from the incoming request at session creation.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}
