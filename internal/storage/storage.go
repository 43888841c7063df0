package storage

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrOrgNotFound   = errors.New("organization not found")
	ErrSlugTaken     = errors.New("organization slug already taken")
	ErrNotMember     = errors.New("user is not a member of the organization")
	ErrAlreadyMember = errors.New("user is already a member of the organization")
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Ping() error {
	return s.db.Ping()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
