package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"pocketauth-backend/internal/models"
)

const userColumns = `id, email, hashed_password, email_verified, image, role, banned, ban_reason, ban_expires, created_at, updated_at`

func (s *Storage) CreateUser(ctx context.Context, email, hashedPassword string) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, hashed_password)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	var user models.User
	err := s.db.GetContext(ctx, &user, query, uuid.New().String(), email, hashedPassword)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return &user, nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (s *Storage) SetEmailVerified(ctx context.Context, userID string) error {
	query := `UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, userID)
	return err
}

func (s *Storage) UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error {
	query := `UPDATE users SET hashed_password = $1, updated_at = NOW() WHERE id = $2`
	_, err := s.db.ExecContext(ctx, query, hashedPassword, userID)
	return err
}
