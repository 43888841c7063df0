// Package handlers carries the organization endpoints. They are thin
// glue over storage; the session middleware has already resolved the
// requesting user.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pocketauth-backend/internal/auth"
	"pocketauth-backend/internal/models"
	"pocketauth-backend/internal/storage"
)

type Handler struct {
	storage *storage.Storage
}

func New(storage *storage.Storage) *Handler {
	return &Handler{storage: storage}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/v1/organizations", h.ListOrganizations)
	r.Post("/v1/organizations", h.CreateOrganization)
	r.Get("/v1/organizations/{id}", h.GetOrganization)
	r.Get("/v1/organizations/{id}/members", h.ListMembers)
	r.Post("/v1/organizations/{id}/members", h.AddMember)
	r.Get("/v1/organizations/{id}/invitations", h.ListInvitations)
	r.Post("/v1/organizations/{id}/invitations", h.CreateInvitation)
}

// ListOrganizations returns the organizations the user belongs to
// @Summary List my organizations
// @Tags organizations
// @Produce json
// @Success 200 {array} models.Organization
// @Router /v1/organizations [get]
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orgs, err := h.storage.ListUserOrganizations(r.Context(), user.ID)
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orgs)
}

// CreateOrganization creates an organization owned by the caller
// @Summary Create organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param body body models.CreateOrganizationInput true "Organization"
// @Success 201 {object} models.Organization
// @Failure 409 {string} string "Slug already taken"
// @Router /v1/organizations [post]
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input models.CreateOrganizationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	org, err := h.storage.CreateOrganization(r.Context(), input, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrSlugTaken) {
			http.Error(w, "Slug already taken", http.StatusConflict)
			return
		}
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, org)
}

// GetOrganization returns one organization the caller is a member of
// @Summary Get organization
// @Tags organizations
// @Produce json
// @Param id path string true "Organization id"
// @Success 200 {object} models.Organization
// @Failure 403 {string} string "Not a member"
// @Failure 404 {string} string "Not found"
// @Router /v1/organizations/{id} [get]
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMembership(w, r)
	if !ok {
		return
	}

	org, err := h.storage.GetOrganization(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, storage.ErrOrgNotFound) {
			http.Error(w, "Organization not found", http.StatusNotFound)
			return
		}
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, org)
}

// ListMembers returns the organization's membership roster
// @Summary List members
// @Tags organizations
// @Produce json
// @Param id path string true "Organization id"
// @Success 200 {array} models.OrgMember
// @Failure 403 {string} string "Not a member"
// @Router /v1/organizations/{id}/members [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMembership(w, r)
	if !ok {
		return
	}

	members, err := h.storage.ListOrganizationMembers(r.Context(), orgID)
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// AddMember adds an existing user to the organization by email
// @Summary Add member
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization id"
// @Param body body models.AddMemberInput true "Member"
// @Success 201 {object} map[string]bool
// @Failure 403 {string} string "Requires owner or admin role"
// @Failure 404 {string} string "No such user"
// @Failure 409 {string} string "Already a member"
// @Router /v1/organizations/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	orgID := chi.URLParam(r, "id")

	role, err := h.storage.GetMemberRole(r.Context(), orgID, user.ID)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if role != "owner" && role != "admin" {
		http.Error(w, "Requires owner or admin role", http.StatusForbidden)
		return
	}

	var input models.AddMemberInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Email == "" || input.Role == "" {
		http.Error(w, "Email and role required", http.StatusBadRequest)
		return
	}

	target, err := h.storage.GetUserByEmail(r.Context(), input.Email)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if target == nil {
		http.Error(w, "No such user", http.StatusNotFound)
		return
	}

	if err := h.storage.AddOrganizationMember(r.Context(), orgID, target.ID, input.Role); err != nil {
		if errors.Is(err, storage.ErrAlreadyMember) {
			http.Error(w, "Already a member", http.StatusConflict)
			return
		}
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

// ListInvitations returns pending invitations for the organization
// @Summary List invitations
// @Tags organizations
// @Produce json
// @Param id path string true "Organization id"
// @Success 200 {array} models.Invitation
// @Failure 403 {string} string "Not a member"
// @Router /v1/organizations/{id}/invitations [get]
func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMembership(w, r)
	if !ok {
		return
	}

	invitations, err := h.storage.ListInvitations(r.Context(), orgID)
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invitations)
}

// CreateInvitation records an invitation to join the organization
// @Summary Invite by email
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization id"
// @Param body body models.CreateInvitationInput true "Invitation"
// @Success 201 {object} models.Invitation
// @Failure 403 {string} string "Not a member"
// @Router /v1/organizations/{id}/invitations [post]
func (h *Handler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	orgID, ok := h.requireMembership(w, r)
	if !ok {
		return
	}

	var input models.CreateInvitationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Email == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}

	inv, err := h.storage.CreateInvitation(r.Context(), orgID, user.ID, input)
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

// requireMembership resolves the {id} URL param and rejects callers who
// hold no membership row for it.
func (h *Handler) requireMembership(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	orgID := chi.URLParam(r, "id")
	if orgID == "" {
		http.Error(w, "Missing organization id", http.StatusBadRequest)
		return "", false
	}

	role, err := h.storage.GetMemberRole(r.Context(), orgID, user.ID)
	if err != nil {
		respondInternal(w, err)
		return "", false
	}
	if role == "" {
		http.Error(w, "Not a member of that organization", http.StatusForbidden)
		return "", false
	}
	return orgID, true
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondInternal(w http.ResponseWriter, err error) {
	log.Printf("ERROR organization handler: %v", err)
	http.Error(w, "Something went wrong", http.StatusInternalServerError)
}
