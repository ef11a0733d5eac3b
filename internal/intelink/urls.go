package intelink

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/intelink/console/internal/accesscontrol"
	"github.com/intelink/console/internal/client"
	"github.com/intelink/console/internal/form"
)

var ErrEmptyShortCode = errors.New("short code is required")

// ShortURL is a short link as listed by the backend.
type ShortURL struct {
	ShortCode     string             `json:"shortCode"`
	ShortURL      string             `json:"shortUrl"`
	OriginalURL   string             `json:"originalUrl"`
	Description   string             `json:"description"`
	HasPassword   bool               `json:"hasPassword"`
	MaxUsage      int                `json:"maxUsage"`
	TotalClicks   int64              `json:"totalClicks"`
	IsActive      bool               `json:"isActive"`
	ExpiresAt     *time.Time         `json:"expiresAt,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	AccessControl accesscontrol.Data `json:"accessControl"`
}

// CreateURLRequest is the create-short-URL body: the form fields plus the
// access-control fragment.
type CreateURLRequest struct {
	OriginalURL   string `json:"originalUrl"`
	Description   string `json:"description,omitempty"`
	Password      string `json:"password,omitempty"`
	MaxUsage      int    `json:"maxUsage,omitempty"`
	AvailableDays int    `json:"availableDays,omitempty"`
	accesscontrol.Payload
}

// NewCreateURLRequest merges the submitted form with the access-control
// selection. An empty selection serializes as mode NONE.
func NewCreateURLRequest(f form.CreateURLForm, ac accesscontrol.Data) CreateURLRequest {
	return CreateURLRequest{
		OriginalURL:   strings.TrimSpace(f.OriginalURL),
		Description:   strings.TrimSpace(f.Description),
		Password:      f.Password,
		MaxUsage:      f.MaxUsage,
		AvailableDays: f.AvailableDays,
		Payload:       ac.Payload(),
	}
}

// UpdateURLRequest changes selected fields; nil fields are left untouched.
type UpdateURLRequest struct {
	OriginalURL *string `json:"originalUrl,omitempty"`
	Description *string `json:"description,omitempty"`
	Password    *string `json:"password,omitempty"`
	MaxUsage    *int    `json:"maxUsage,omitempty"`
	*accesscontrol.Payload
}

type URLService struct {
	c *client.Client
}

func NewURLService(c *client.Client) *URLService {
	return &URLService{c: c}
}

func (s *URLService) List(ctx context.Context, opts ListOptions) (*Page[ShortURL], error) {
	var page Page[ShortURL]
	if err := s.c.Do(ctx, http.MethodGet, withQuery("/url", opts.values()), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Search lists short URLs whose code, destination or description match term.
func (s *URLService) Search(ctx context.Context, term string, opts ListOptions) (*Page[ShortURL], error) {
	v := opts.values()
	v.Set("q", strings.TrimSpace(term))
	var page Page[ShortURL]
	if err := s.c.Do(ctx, http.MethodGet, withQuery("/url/search", v), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *URLService) Get(ctx context.Context, code string) (*ShortURL, error) {
	path, err := urlPath(code, "")
	if err != nil {
		return nil, err
	}
	var u ShortURL
	if err := s.c.Do(ctx, http.MethodGet, path, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *URLService) Create(ctx context.Context, req CreateURLRequest) (*ShortURL, error) {
	var u ShortURL
	if err := s.c.Do(ctx, http.MethodPost, "/url", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *URLService) Update(ctx context.Context, code string, req UpdateURLRequest) (*ShortURL, error) {
	path, err := urlPath(code, "")
	if err != nil {
		return nil, err
	}
	var u ShortURL
	if err := s.c.Do(ctx, http.MethodPut, path, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *URLService) Delete(ctx context.Context, code string) error {
	path, err := urlPath(code, "")
	if err != nil {
		return err
	}
	return s.c.Do(ctx, http.MethodDelete, path, nil, nil)
}

func (s *URLService) Enable(ctx context.Context, code string) error {
	path, err := urlPath(code, "enable")
	if err != nil {
		return err
	}
	return s.c.Do(ctx, http.MethodPut, path, nil, nil)
}

func (s *URLService) Disable(ctx context.Context, code string) error {
	path, err := urlPath(code, "disable")
	if err != nil {
		return err
	}
	return s.c.Do(ctx, http.MethodPut, path, nil, nil)
}

func urlPath(code, action string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrEmptyShortCode
	}
	p := "/url/" + url.PathEscape(code)
	if action != "" {
		p += "/" + action
	}
	return p, nil
}
