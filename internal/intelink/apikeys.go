package intelink

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/intelink/console/internal/client"
)

var ErrEmptyKeyName = errors.New("api key name is required")

// APIKey is a programmatic credential. Secret is only returned on creation.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	Secret     string     `json:"key,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type APIKeyService struct {
	c *client.Client
}

func NewAPIKeyService(c *client.Client) *APIKeyService {
	return &APIKeyService{c: c}
}

func (s *APIKeyService) List(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	if err := s.c.Do(ctx, http.MethodGet, "/api-keys", nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// Create issues a key; expiresInDays of 0 means it never expires.
func (s *APIKeyService) Create(ctx context.Context, name string, expiresInDays int) (*APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyKeyName
	}
	body := map[string]interface{}{"name": name}
	if expiresInDays > 0 {
		body["expiresInDays"] = expiresInDays
	}
	var key APIKey
	if err := s.c.Do(ctx, http.MethodPost, "/api-keys", body, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *APIKeyService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("api key id is required")
	}
	return s.c.Do(ctx, http.MethodDelete, "/api-keys/"+url.PathEscape(id), nil, nil)
}
