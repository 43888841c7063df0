package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"pocketauth-backend/internal/models"
	"pocketauth-backend/internal/token"
)

const (
	// SessionRefreshInterval is the sliding-renewal window: a session
	// validated with less than this much lifetime left is extended.
	SessionRefreshInterval = 15 * 24 * time.Hour
	// SessionMaxDuration is the lifetime granted at creation and on
	// renewal: two refresh windows.
	SessionMaxDuration = 2 * SessionRefreshInterval
)

const sessionColumns = `id, token_hash, user_id, expires_at, active_organization_id, ip_address, user_agent, created_at, updated_at`

// CreateSession mints a session token, persists only its hash, and
// returns the raw token exactly once. The session id is independent of
// the token hash.
func (s *Storage) CreateSession(ctx context.Context, userID string, meta models.RequestMeta) (string, *models.Session, error) {
	rawToken, err := token.Generate()
	if err != nil {
		return "", nil, err
	}

	query := `
		INSERT INTO sessions (id, token_hash, user_id, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + sessionColumns

	var session models.Session
	err = s.db.GetContext(ctx, &session, query,
		uuid.New().String(),
		token.Hash(rawToken),
		userID,
		time.Now().Add(SessionMaxDuration),
		nullIfEmpty(meta.IPAddress),
		nullIfEmpty(meta.UserAgent),
	)
	if err != nil {
		return "", nil, err
	}

	return rawToken, &session, nil
}

// ValidateSessionToken resolves a raw token to its session and owning
// user. Expired and orphaned rows are deleted on sight (lazy expiry);
// sessions inside the refresh window get their expiry extended before
// returning. A (nil, nil, nil) return means the token is not valid.
func (s *Storage) ValidateSessionToken(ctx context.Context, rawToken string) (*models.Session, *models.User, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token_hash = $1`

	var session models.Session
	if err := s.db.GetContext(ctx, &session, query, token.Hash(rawToken)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	now := time.Now()
	if !now.Before(session.ExpiresAt) {
		if err := s.InvalidateSession(ctx, session.ID); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}

	user, err := s.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		if err := s.InvalidateSession(ctx, session.ID); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}

	if renewalDue(now, session.ExpiresAt) {
		renewed := now.Add(SessionMaxDuration)
		// The guard keeps a lost write race from shrinking a lifetime
		// another request already extended further.
		_, err := s.db.ExecContext(ctx, `
			UPDATE sessions
			SET expires_at = $1, updated_at = NOW()
			WHERE id = $2 AND expires_at < $1
		`, renewed, session.ID)
		if err != nil {
			return nil, nil, err
		}
		session.ExpiresAt = renewed
	}

	return &session, user, nil
}

func (s *Storage) InvalidateSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	return err
}

// InvalidateUserSessions deletes every session owned by the user,
// matching on the user_id foreign key. Used to force re-authentication
// after password changes and email verification.
func (s *Storage) InvalidateUserSessions(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// SetActiveOrganization scopes the session to an organization. The
// update only lands when the session's user actually holds a membership
// row for that organization; passing an empty id clears the scope.
func (s *Storage) SetActiveOrganization(ctx context.Context, sessionID, organizationID string) error {
	if organizationID == "" {
		_, err := s.db.ExecContext(ctx, `
			UPDATE sessions
			SET active_organization_id = NULL, updated_at = NOW()
			WHERE id = $1
		`, sessionID)
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET active_organization_id = $2, updated_at = NOW()
		WHERE id = $1 AND EXISTS (
			SELECT 1 FROM org_members m
			WHERE m.organization_id = $2 AND m.user_id = sessions.user_id
		)
	`, sessionID, organizationID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotMember
	}
	return nil
}

func renewalDue(now, expiresAt time.Time) bool {
	return !now.Before(expiresAt.Add(-SessionRefreshInterval))
}
