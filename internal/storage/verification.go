package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"pocketauth-backend/internal/models"
)

// VerificationCodeTTL bounds how long a 6-digit code stays redeemable,
// and doubles as the resend cooldown.
const VerificationCodeTTL = 10 * time.Minute

// CreateVerificationCode replaces any live code for the user with a
// fresh 6-digit one, keeping the at-most-one-live-code invariant.
func (s *Storage) CreateVerificationCode(ctx context.Context, userID, email string) (string, error) {
	code, err := generateNumericCode(6)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM email_verification_codes WHERE user_id = $1`, userID); err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO email_verification_codes (id, user_id, email, code, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), userID, email, code, time.Now().Add(VerificationCodeTTL))
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return code, nil
}

// PeekVerificationCode returns the user's live code row without
// consuming it, or (nil, nil) when none exists. Used for the resend
// cooldown check.
func (s *Storage) PeekVerificationCode(ctx context.Context, userID string) (*models.EmailVerificationCode, error) {
	query := `
		SELECT id, user_id, email, code, expires_at, created_at, updated_at
		FROM email_verification_codes
		WHERE user_id = $1
	`

	var row models.EmailVerificationCode
	if err := s.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ConsumeVerificationCode deletes and returns the user's code row in one
// statement, so two concurrent redemption attempts resolve to exactly
// one winner. The row is consumed regardless of whether the submitted
// code matches; the caller decides the outcome afterwards.
func (s *Storage) ConsumeVerificationCode(ctx context.Context, userID string) (*models.EmailVerificationCode, error) {
	query := `
		DELETE FROM email_verification_codes
		WHERE user_id = $1
		RETURNING id, user_id, email, code, expires_at, created_at, updated_at
	`

	var row models.EmailVerificationCode
	if err := s.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func generateNumericCode(digits int) (string, error) {
	bound := big.NewInt(1)
	for i := 0; i < digits; i++ {
		bound.Mul(bound, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
