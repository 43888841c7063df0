package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pocketauth-backend/internal/models"
	"pocketauth-backend/internal/token"
)

// PasswordResetTTL bounds how long a reset link stays usable.
const PasswordResetTTL = 2 * time.Hour

// CreatePasswordResetToken replaces any live reset token for the user
// with a fresh opaque one. The token itself is the row's primary key.
func (s *Storage) CreatePasswordResetToken(ctx context.Context, userID string) (string, error) {
	resetToken, err := token.Generate()
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID); err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, resetToken, userID, time.Now().Add(PasswordResetTTL))
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return resetToken, nil
}

// ConsumePasswordResetToken deletes and returns the token row in one
// statement. Same exactly-one-winner discipline as verification codes:
// the row is gone after the first attempt, matching or not.
func (s *Storage) ConsumePasswordResetToken(ctx context.Context, resetToken string) (*models.PasswordResetToken, error) {
	query := `
		DELETE FROM password_reset_tokens
		WHERE id = $1
		RETURNING id, user_id, expires_at, created_at, updated_at
	`

	var row models.PasswordResetToken
	if err := s.db.GetContext(ctx, &row, query, resetToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
