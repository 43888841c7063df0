package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pocketauth-backend/internal/models"
	"pocketauth-backend/internal/storage"
	"pocketauth-backend/internal/token"
)

// fakeStore is an in-memory Store mirroring the semantics of
// internal/storage: hash-keyed session lookup, lazy expiry, sliding
// renewal, delete-prior-on-issue, and consume-on-read redemption.
type fakeStore struct {
	mu sync.Mutex

	users    map[string]*models.User               // by id
	sessions map[string]*models.Session            // by token hash
	codes    map[string]*models.EmailVerificationCode // by user id
	resets   map[string]*models.PasswordResetToken // by token

	nextCode int
	now      func() time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*models.User),
		sessions: make(map[string]*models.Session),
		codes:    make(map[string]*models.EmailVerificationCode),
		resets:   make(map[string]*models.PasswordResetToken),
		now:      time.Now,
	}
}

func (f *fakeStore) CreateUser(_ context.Context, email, hashedPassword string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			return nil, storage.ErrEmailTaken
		}
	}
	user := &models.User{
		ID:             uuid.New().String(),
		Email:          email,
		HashedPassword: &hashedPassword,
		Role:           models.RoleUser,
		CreatedAt:      f.now(),
		UpdatedAt:      f.now(),
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SetEmailVerified(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.EmailVerified = true
	}
	return nil
}

func (f *fakeStore) UpdateUserPassword(_ context.Context, userID, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.HashedPassword = &hashedPassword
	}
	return nil
}

func (f *fakeStore) CreateSession(_ context.Context, userID string, meta models.RequestMeta) (string, *models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rawToken, err := token.Generate()
	if err != nil {
		return "", nil, err
	}
	session := &models.Session{
		ID:        uuid.New().String(),
		TokenHash: token.Hash(rawToken),
		UserID:    userID,
		ExpiresAt: f.now().Add(storage.SessionMaxDuration),
		CreatedAt: f.now(),
		UpdatedAt: f.now(),
	}
	if meta.IPAddress != "" {
		session.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		session.UserAgent = &meta.UserAgent
	}
	f.sessions[session.TokenHash] = session
	return rawToken, session, nil
}

func (f *fakeStore) ValidateSessionToken(ctx context.Context, rawToken string) (*models.Session, *models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[token.Hash(rawToken)]
	if !ok {
		return nil, nil, nil
	}
	now := f.now()
	if !now.Before(session.ExpiresAt) {
		delete(f.sessions, session.TokenHash)
		return nil, nil, nil
	}
	user, ok := f.users[session.UserID]
	if !ok {
		delete(f.sessions, session.TokenHash)
		return nil, nil, nil
	}
	if !now.Before(session.ExpiresAt.Add(-storage.SessionRefreshInterval)) {
		session.ExpiresAt = now.Add(storage.SessionMaxDuration)
	}
	return session, user, nil
}

func (f *fakeStore) InvalidateSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, s := range f.sessions {
		if s.ID == sessionID {
			delete(f.sessions, hash)
		}
	}
	return nil
}

func (f *fakeStore) InvalidateUserSessions(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, hash)
		}
	}
	return nil
}

func (f *fakeStore) CreateVerificationCode(_ context.Context, userID, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.codes, userID)
	f.nextCode++
	code := fmt.Sprintf("%06d", f.nextCode)
	f.codes[userID] = &models.EmailVerificationCode{
		ID:        uuid.New().String(),
		UserID:    userID,
		Email:     email,
		Code:      code,
		ExpiresAt: f.now().Add(storage.VerificationCodeTTL),
	}
	return code, nil
}

func (f *fakeStore) PeekVerificationCode(_ context.Context, userID string) (*models.EmailVerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[userID], nil
}

func (f *fakeStore) ConsumeVerificationCode(_ context.Context, userID string) (*models.EmailVerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.codes[userID]
	delete(f.codes, userID)
	return row, nil
}

func (f *fakeStore) CreatePasswordResetToken(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for tok, row := range f.resets {
		if row.UserID == userID {
			delete(f.resets, tok)
		}
	}
	resetToken, err := token.Generate()
	if err != nil {
		return "", err
	}
	f.resets[resetToken] = &models.PasswordResetToken{
		ID:        resetToken,
		UserID:    userID,
		ExpiresAt: f.now().Add(storage.PasswordResetTTL),
	}
	return resetToken, nil
}

func (f *fakeStore) ConsumePasswordResetToken(_ context.Context, resetToken string) (*models.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.resets[resetToken]
	delete(f.resets, resetToken)
	return row, nil
}

// test helpers

func (f *fakeStore) sessionCountForUser(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

func (f *fakeStore) setCodeExpiry(userID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.codes[userID]; ok {
		row.ExpiresAt = at
	}
}

func (f *fakeStore) setResetExpiry(resetToken string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.resets[resetToken]; ok {
		row.ExpiresAt = at
	}
}
