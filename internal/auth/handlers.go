package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"pocketauth-backend/internal/middleware"
	"pocketauth-backend/internal/models"
	"pocketauth-backend/internal/storage"
)

// SessionScoper is the slice of Store the active-organization switch
// needs.
type SessionScoper interface {
	SetActiveOrganization(ctx context.Context, sessionID, organizationID string) error
}

type Handler struct {
	svc           *Service
	sessions      SessionScoper
	secureCookies bool
}

func NewHandler(svc *Service, sessions SessionScoper, secureCookies bool) *Handler {
	return &Handler{svc: svc, sessions: sessions, secureCookies: secureCookies}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resultResponse struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message,omitempty"`
	RedirectTo  string            `json:"redirect_to,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// Login authenticates a user and sets the session cookie
// @Summary User login
// @Description Authenticates user with email and password, sets an HTTP-only session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body credentialsRequest true "Login credentials"
// @Success 200 {object} resultResponse
// @Failure 400 {object} resultResponse "Field validation errors"
// @Failure 401 {object} resultResponse "Invalid credentials"
// @Router /v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password, requestMeta(r))
	if err != nil {
		h.respondInternal(w, err)
		return
	}
	h.respondResult(w, res, http.StatusUnauthorized)
}

// Signup registers a new user
// @Summary User signup
// @Description Creates an account, emails a verification code, sets a session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body credentialsRequest true "Signup credentials"
// @Success 200 {object} resultResponse
// @Failure 400 {object} resultResponse "Field validation errors"
// @Failure 409 {object} resultResponse "Email already registered"
// @Router /v1/auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Signup(r.Context(), req.Email, req.Password, requestMeta(r))
	if err != nil {
		h.respondInternal(w, err)
		return
	}
	h.respondResult(w, res, http.StatusConflict)
}

// Logout invalidates the current session and clears the cookie
// @Summary User logout
// @Tags auth
// @Produce json
// @Success 200 {object} resultResponse
// @Router /v1/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if session, ok := SessionFromContext(r.Context()); ok {
		sessionID = session.ID
	}

	res, err := h.svc.Logout(r.Context(), sessionID)
	if err != nil {
		h.respondInternal(w, err)
		return
	}
	// Soft failure stays a 200; logging out twice is not an error
	// worth surfacing.
	h.respondResult(w, res, http.StatusOK)
}

// Me returns the current authenticated user and session scope
// @Summary Get current user
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {string} string "Unauthorized"
// @Router /v1/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	session, _ := SessionFromContext(r.Context())

	respondJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"session": session,
	})
}

type verifyEmailRequest struct {
	Code string `json:"code"`
}

// VerifyEmail redeems the emailed 6-digit code
// @Summary Verify email
// @Tags auth
// @Accept json
// @Produce json
// @Param body body verifyEmailRequest true "Verification code"
// @Success 200 {object} resultResponse
// @Failure 400 {object} resultResponse "Invalid, expired, or already-used code"
// @Router /v1/auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.VerifyEmail(r.Context(), user.ID, req.Code, requestMeta(r))
	if err != nil {
		h.respondInternal(w, err)
		return
	}
	h.respondResult(w, res, http.StatusBadRequest)
}

// ResendVerification reissues the verification code after the cooldown
// @Summary Resend verification email
// @Tags auth
// @Produce json
// @Success 200 {object} resultResponse
// @Failure 400 {object} resultResponse "Cooldown not elapsed"
// @Router /v1/auth/resend-verification [post]
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	res, err := h.svc.ResendVerificationEmail(r.Context(), user.ID, user.Email)
	if err != nil {
		h.respondInternal(w, err)
		return
	}
	h.respondResult(w, res, http.StatusBadRequest)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword emails a password reset link
// @Summary Request password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param body body forgotPasswordRequest true "Account email"
// @Success 200 {object} resultResponse
// @Failure 400 {object} resultResponse "Invalid or unverified email"
// @Router /v1/auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.SendPasswordResetLink(r.Context(), req.Email)
	if err != nil {
		h.respondInternal(w, err)
		return
	}
	h.respondResult(w, res, http.StatusBadRequest)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword redeems a reset token and sets a new password
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body resetPasswordRequest true "Reset token and new password"
// @Success 200 {object} resultResponse
// @Failure 400 {object} resultResponse "Invalid or expired token, or weak password"
// @Router /v1/auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.ResetPassword(r.Context(), req.Token, req.Password, requestMeta(r))
	if err != nil {
		h.respondInternal(w, err)
		return
	}
	h.respondResult(w, res, http.StatusBadRequest)
}

type activeOrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

// SetActiveOrganization scopes the session to one of the user's
// organizations; an empty id clears the scope
// @Summary Switch active organization
// @Tags auth
// @Accept json
// @Produce json
// @Param body body activeOrganizationRequest true "Organization id"
// @Success 200 {object} resultResponse
// @Failure 403 {object} resultResponse "Not a member"
// @Router /v1/auth/active-organization [post]
func (h *Handler) SetActiveOrganization(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req activeOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.sessions.SetActiveOrganization(r.Context(), session.ID, req.OrganizationID); err != nil {
		if errors.Is(err, storage.ErrNotMember) {
			respondJSON(w, http.StatusForbidden, resultResponse{Message: "Not a member of that organization"})
			return
		}
		h.respondInternal(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resultResponse{Success: true, Message: "Active organization updated"})
}

// respondResult applies the flow's cookie instructions and writes the
// JSON body; failureStatus is used when the flow did not succeed and
// reported no field errors.
func (h *Handler) respondResult(w http.ResponseWriter, res Result, failureStatus int) {
	if res.Session != nil {
		SetSessionCookie(w, res.Session.Token, res.Session.ExpiresAt, h.secureCookies)
	}
	if res.ClearCookie {
		ClearSessionCookie(w, h.secureCookies)
	}

	status := http.StatusOK
	if !res.Success {
		status = failureStatus
		if res.FieldErrors != nil {
			status = http.StatusBadRequest
		}
	}

	respondJSON(w, status, resultResponse{
		Success:     res.Success,
		Message:     res.Message,
		RedirectTo:  res.RedirectTo,
		FieldErrors: res.FieldErrors,
	})
}

func (h *Handler) respondInternal(w http.ResponseWriter, err error) {
	log.Printf("ERROR auth flow failed: %v", err)
	respondJSON(w, http.StatusInternalServerError, resultResponse{Message: "Something went wrong"})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestMeta(r *http.Request) models.RequestMeta {
	return models.RequestMeta{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
