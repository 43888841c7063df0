package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"pocketauth-backend/internal/models"
)

const invitationTTL = 7 * 24 * time.Hour

// CreateOrganization inserts the organization and enrolls the creator as
// its owner in one transaction.
func (s *Storage) CreateOrganization(ctx context.Context, input models.CreateOrganizationInput, ownerID string) (*models.Organization, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO organizations (id, name, slug, logo)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, slug, logo, created_at, updated_at
	`

	var org models.Organization
	err = tx.GetContext(ctx, &org, query, uuid.New().String(), input.Name, nullIfEmpty(input.Slug), input.Logo)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO org_members (id, organization_id, user_id, role)
		VALUES ($1, $2, $3, 'owner')
	`, uuid.New().String(), org.ID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *Storage) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	query := `
		SELECT id, name, slug, logo, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	var org models.Organization
	if err := s.db.GetContext(ctx, &org, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (s *Storage) ListUserOrganizations(ctx context.Context, userID string) ([]models.Organization, error) {
	query := `
		SELECT o.id, o.name, o.slug, o.logo, o.created_at, o.updated_at
		FROM organizations o
		JOIN org_members m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.created_at
	`

	orgs := []models.Organization{}
	if err := s.db.SelectContext(ctx, &orgs, query, userID); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (s *Storage) ListOrganizationMembers(ctx context.Context, organizationID string) ([]models.OrgMember, error) {
	query := `
		SELECT m.id, m.organization_id, m.user_id, u.email, m.role, m.created_at
		FROM org_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY m.created_at
	`

	members := []models.OrgMember{}
	if err := s.db.SelectContext(ctx, &members, query, organizationID); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Storage) AddOrganizationMember(ctx context.Context, organizationID, userID, role string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO org_members (id, organization_id, user_id, role)
		VALUES ($1, $2, $3, $4)
	`, uuid.New().String(), organizationID, userID, role)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

// GetMemberRole returns the user's role in the organization, or "" when
// no membership exists.
func (s *Storage) GetMemberRole(ctx context.Context, organizationID, userID string) (string, error) {
	query := `SELECT role FROM org_members WHERE organization_id = $1 AND user_id = $2`

	var role string
	if err := s.db.GetContext(ctx, &role, query, organizationID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return role, nil
}

func (s *Storage) CreateInvitation(ctx context.Context, organizationID, inviterID string, input models.CreateInvitationInput) (*models.Invitation, error) {
	query := `
		INSERT INTO invitations (id, organization_id, email, role, status, expires_at, inviter_id)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6)
		RETURNING id, organization_id, email, role, status, expires_at, inviter_id
	`

	var inv models.Invitation
	err := s.db.GetContext(ctx, &inv, query,
		uuid.New().String(), organizationID, input.Email, input.Role,
		time.Now().Add(invitationTTL), inviterID)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Storage) ListInvitations(ctx context.Context, organizationID string) ([]models.Invitation, error) {
	query := `
		SELECT id, organization_id, email, role, status, expires_at, inviter_id
		FROM invitations
		WHERE organization_id = $1
		ORDER BY expires_at DESC
	`

	invitations := []models.Invitation{}
	if err := s.db.SelectContext(ctx, &invitations, query, organizationID); err != nil {
		return nil, err
	}
	return invitations, nil
}
