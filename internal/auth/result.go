package auth

import "time"

// Redirect targets handed back to the transport layer.
const (
	PathHome          = "/"
	PathLogin         = "/login"
	PathVerifyEmail   = "/verify-email"
	PathLoggedIn      = "/organizations"
	PathResetPassword = "/reset-password"
)

// SessionGrant instructs the transport layer to store the raw token as
// the session cookie with the given expiry.
type SessionGrant struct {
	Token     string
	ExpiresAt time.Time
}

// Result is the unified outcome of every auth flow. Domain failures are
// expressed here rather than as errors; only storage/infra failures
// escalate past the flow boundary.
type Result struct {
	Success     bool
	Message     string
	RedirectTo  string
	FieldErrors map[string]string
	Session     *SessionGrant
	ClearCookie bool
}

func failure(message string) Result {
	return Result{Message: message}
}

func fieldFailure(fields map[string]string) Result {
	return Result{FieldErrors: fields}
}
