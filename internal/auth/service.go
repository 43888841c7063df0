package auth

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	mailer "pocketauth-backend/internal/mail"
	"pocketauth-backend/internal/models"
)

const minPasswordLen = 8

// Store is the persistence surface the auth flows need. Implemented by
// *storage.Storage; tests substitute an in-memory fake.
type Store interface {
	CreateUser(ctx context.Context, email, hashedPassword string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetEmailVerified(ctx context.Context, userID string) error
	UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error

	CreateSession(ctx context.Context, userID string, meta models.RequestMeta) (string, *models.Session, error)
	ValidateSessionToken(ctx context.Context, rawToken string) (*models.Session, *models.User, error)
	InvalidateSession(ctx context.Context, sessionID string) error
	InvalidateUserSessions(ctx context.Context, userID string) error

	CreateVerificationCode(ctx context.Context, userID, email string) (string, error)
	PeekVerificationCode(ctx context.Context, userID string) (*models.EmailVerificationCode, error)
	ConsumeVerificationCode(ctx context.Context, userID string) (*models.EmailVerificationCode, error)

	CreatePasswordResetToken(ctx context.Context, userID string) (string, error)
	ConsumePasswordResetToken(ctx context.Context, resetToken string) (*models.PasswordResetToken, error)
}

// Service composes the token, password, and storage layers into the
// login/signup/verify/reset flows.
type Service struct {
	store      Store
	mailer     mailer.Mailer
	appBaseURL string
	now        func() time.Time
}

func NewService(store Store, m mailer.Mailer, appBaseURL string) *Service {
	return &Service{
		store:      store,
		mailer:     m,
		appBaseURL: strings.TrimSuffix(appBaseURL, "/"),
		now:        time.Now,
	}
}

// Login authenticates an email/password pair. The failure message is
// identical for unknown email, passwordless account, and wrong password
// so the endpoint cannot be used to enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string, meta models.RequestMeta) (Result, error) {
	if fields := validateCredentials(email, password, 1); fields != nil {
		return fieldFailure(fields), nil
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return Result{}, err
	}
	if user == nil || user.HashedPassword == nil || !VerifyPassword(password, *user.HashedPassword) {
		return failure("Incorrect email or password"), nil
	}

	rawToken, session, err := s.store.CreateSession(ctx, user.ID, meta)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Success:    true,
		Message:    "Login successful",
		RedirectTo: PathLoggedIn,
		Session:    &SessionGrant{Token: rawToken, ExpiresAt: session.ExpiresAt},
	}, nil
}

// Signup registers a new account, issues a verification code, and logs
// the user in pending verification.
func (s *Service) Signup(ctx context.Context, email, password string, meta models.RequestMeta) (Result, error) {
	if fields := validateCredentials(email, password, minPasswordLen); fields != nil {
		return fieldFailure(fields), nil
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		return failure("Cannot create account with that email"), nil
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return Result{}, err
	}

	user, err := s.store.CreateUser(ctx, email, hashedPassword)
	if err != nil {
		// Lost a race with a concurrent signup for the same email.
		if existing, lookupErr := s.store.GetUserByEmail(ctx, email); lookupErr == nil && existing != nil {
			return failure("Cannot create account with that email"), nil
		}
		return Result{}, err
	}

	code, err := s.store.CreateVerificationCode(ctx, user.ID, user.Email)
	if err != nil {
		return Result{}, err
	}

	if err := s.mailer.Send(ctx, user.Email, mailer.TemplateEmailVerification, map[string]string{"code": code}); err != nil {
		log.Printf("WARN verification email for %s failed: %v", user.ID, err)
		return failure("Failed to send verification email"), nil
	}

	rawToken, session, err := s.store.CreateSession(ctx, user.ID, meta)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Success:    true,
		Message:    "Account created successfully",
		RedirectTo: PathVerifyEmail,
		Session:    &SessionGrant{Token: rawToken, ExpiresAt: session.ExpiresAt},
	}, nil
}

// Logout invalidates one session. A missing session is a soft failure,
// never an error.
func (s *Service) Logout(ctx context.Context, sessionID string) (Result, error) {
	if sessionID == "" {
		return failure("No session found"), nil
	}

	if err := s.store.InvalidateSession(ctx, sessionID); err != nil {
		return Result{}, err
	}

	return Result{
		Success:     true,
		Message:     "Logged out successfully",
		RedirectTo:  PathHome,
		ClearCookie: true,
	}, nil
}

// VerifyEmail redeems a verification code. The code row is consumed by
// the lookup itself, so a failed attempt cannot be replayed. Success
// invalidates every other session before granting a fresh one.
func (s *Service) VerifyEmail(ctx context.Context, userID, code string, meta models.RequestMeta) (Result, error) {
	if len(code) != 6 {
		return failure("Invalid code"), nil
	}

	row, err := s.store.ConsumeVerificationCode(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if row == nil || row.Code != code {
		return failure("Invalid verification code"), nil
	}
	if !s.now().Before(row.ExpiresAt) {
		return failure("Verification code expired"), nil
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if user == nil {
		return failure("User not found"), nil
	}
	if row.Email != user.Email {
		return failure("Email does not match"), nil
	}

	if err := s.store.InvalidateUserSessions(ctx, userID); err != nil {
		return Result{}, err
	}
	if err := s.store.SetEmailVerified(ctx, userID); err != nil {
		return Result{}, err
	}

	rawToken, session, err := s.store.CreateSession(ctx, userID, meta)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Success:    true,
		Message:    "Email verified successfully",
		RedirectTo: PathLoggedIn,
		Session:    &SessionGrant{Token: rawToken, ExpiresAt: session.ExpiresAt},
	}, nil
}

// ResendVerificationEmail reissues a code unless the prior one is still
// live; the code TTL is the only cooldown on verification mail.
func (s *Service) ResendVerificationEmail(ctx context.Context, userID, email string) (Result, error) {
	lastSent, err := s.store.PeekVerificationCode(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if lastSent != nil && s.now().Before(lastSent.ExpiresAt) {
		return failure(fmt.Sprintf("Please wait %s before resending", timeFromNow(s.now(), lastSent.ExpiresAt))), nil
	}

	code, err := s.store.CreateVerificationCode(ctx, userID, email)
	if err != nil {
		return Result{}, err
	}

	if err := s.mailer.Send(ctx, email, mailer.TemplateEmailVerification, map[string]string{"code": code}); err != nil {
		log.Printf("WARN verification email for %s failed: %v", userID, err)
		return failure("Failed to send verification email"), nil
	}

	return Result{Success: true, Message: "Verification email has been sent"}, nil
}

// SendPasswordResetLink issues a reset token and mails the link. The
// refusal message does not distinguish unknown from unverified accounts.
func (s *Service) SendPasswordResetLink(ctx context.Context, email string) (Result, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return failure("Provided email is invalid"), nil
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return Result{}, err
	}
	if user == nil || !user.EmailVerified {
		return failure("Provided email is invalid"), nil
	}

	resetToken, err := s.store.CreatePasswordResetToken(ctx, user.ID)
	if err != nil {
		return Result{}, err
	}

	link := fmt.Sprintf("%s%s/%s", s.appBaseURL, PathResetPassword, resetToken)
	if err := s.mailer.Send(ctx, user.Email, mailer.TemplatePasswordReset, map[string]string{"link": link}); err != nil {
		log.Printf("WARN password reset email for %s failed: %v", user.ID, err)
		return failure("Failed to send password reset email"), nil
	}

	return Result{Success: true, Message: "Password reset link has been sent to your email"}, nil
}

// ResetPassword redeems a reset token and replaces the password. The
// token is consumed whatever the outcome; success invalidates every
// existing session before granting a fresh one.
func (s *Service) ResetPassword(ctx context.Context, resetToken, password string, meta models.RequestMeta) (Result, error) {
	if len(password) < minPasswordLen {
		return failure("Password must be at least 8 characters long"), nil
	}

	row, err := s.store.ConsumePasswordResetToken(ctx, resetToken)
	if err != nil {
		return Result{}, err
	}
	if row == nil {
		return failure("Invalid or expired password reset token"), nil
	}
	if !s.now().Before(row.ExpiresAt) {
		return failure("Password reset token has expired"), nil
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return Result{}, err
	}

	if err := s.store.InvalidateUserSessions(ctx, row.UserID); err != nil {
		return Result{}, err
	}
	if err := s.store.UpdateUserPassword(ctx, row.UserID, hashedPassword); err != nil {
		return Result{}, err
	}

	rawToken, session, err := s.store.CreateSession(ctx, row.UserID, meta)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Success:    true,
		Message:    "Password has been reset successfully",
		RedirectTo: PathLoggedIn,
		Session:    &SessionGrant{Token: rawToken, ExpiresAt: session.ExpiresAt},
	}, nil
}

func validateCredentials(email, password string, minLen int) map[string]string {
	fields := make(map[string]string)
	if !validEmail(strings.TrimSpace(email)) {
		fields["email"] = "Please enter a valid email"
	}
	if len(password) < minLen {
		if minLen == 1 {
			fields["password"] = "Password is required"
		} else {
			fields["password"] = fmt.Sprintf("Password must be at least %d characters long", minLen)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func timeFromNow(now, until time.Time) string {
	diff := until.Sub(now)
	minutes := int(diff.Minutes())
	seconds := int(diff.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
