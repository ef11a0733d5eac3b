package client

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/intelink/console/internal/models"
)

// TokenStore persists the access/refresh token pair of one session.
type TokenStore interface {
	Tokens(ctx context.Context) (access, refresh string, err error)
	Save(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps tokens for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func NewMemoryStore(access, refresh string) *MemoryStore {
	return &MemoryStore{access: access, refresh: refresh}
}

func (s *MemoryStore) Tokens(context.Context) (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, s.refresh, nil
}

func (s *MemoryStore) Save(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = access, refresh
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = "", ""
	return nil
}

// DBStore keeps the tokens of a named profile in the local database.
type DBStore struct {
	db      *gorm.DB
	profile string
}

func NewDBStore(db *gorm.DB, profile string) *DBStore {
	if profile == "" {
		profile = "default"
	}
	return &DBStore{db: db, profile: profile}
}

func (s *DBStore) Tokens(ctx context.Context) (string, string, error) {
	var session models.StoredSession
	err := s.db.WithContext(ctx).Where("profile = ?", s.profile).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return session.AccessToken, session.RefreshToken, nil
}

func (s *DBStore) Save(ctx context.Context, access, refresh string) error {
	var session models.StoredSession
	return s.db.WithContext(ctx).
		Where(models.StoredSession{Profile: s.profile}).
		Assign(map[string]interface{}{"access_token": access, "refresh_token": refresh}).
		FirstOrCreate(&session).Error
}

func (s *DBStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("profile = ?", s.profile).Delete(&models.StoredSession{}).Error
}
