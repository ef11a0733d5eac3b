// Package intelink wraps the Intelink REST API.
package intelink

import (
	"net/url"
	"strconv"

	"github.com/intelink/console/internal/client"
)

// API groups the backend services behind one shared client.
type API struct {
	Client  *client.Client
	Auth    *AuthService
	URLs    *URLService
	Stats   *StatsService
	APIKeys *APIKeyService
	Billing *BillingService
}

func NewAPI(c *client.Client) *API {
	return &API{
		Client:  c,
		Auth:    NewAuthService(c),
		URLs:    NewURLService(c),
		Stats:   NewStatsService(c),
		APIKeys: NewAPIKeyService(c),
		Billing: NewBillingService(c),
	}
}

// Page is a paged list response.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// ListOptions selects a page. Zero values use the backend defaults.
type ListOptions struct {
	Page  int
	Limit int
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	return v
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}
