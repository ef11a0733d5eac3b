package intelink

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/intelink/console/internal/client"
)

// Plan is a subscription tier.
type Plan struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Currency      string   `json:"currency"`
	BillingPeriod string   `json:"billingPeriod"`
	MaxShortURLs  int      `json:"maxShortUrls"`
	MaxAPIKeys    int      `json:"maxApiKeys"`
	Features      []string `json:"features"`
}

// PriceLabel renders the price for listings, e.g. "$1,200.00 / month".
func (p Plan) PriceLabel() string {
	if p.Price == 0 {
		return "Free"
	}
	symbol := p.Currency
	switch p.Currency {
	case "", "USD":
		symbol = "$"
	case "EUR":
		symbol = "€"
	}
	label := symbol + humanize.FormatFloat("#,###.##", p.Price)
	if p.BillingPeriod != "" {
		label += " / " + p.BillingPeriod
	}
	return label
}

// Subscription is the user's active plan.
type Subscription struct {
	ID        int        `json:"id"`
	Plan      Plan       `json:"plan"`
	Status    string     `json:"status"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	AutoRenew bool       `json:"autoRenew"`
}

// Active reports whether the subscription is in force at now.
func (s Subscription) Active(now time.Time) bool {
	if s.Status != "ACTIVE" {
		return false
	}
	return s.EndDate == nil || now.Before(*s.EndDate)
}

// Cost is a quote for switching to a plan.
type Cost struct {
	PlanID       int     `json:"planId"`
	Amount       float64 `json:"amount"`
	ProratedDays int     `json:"proratedDays"`
	Currency     string  `json:"currency"`
	Message      string  `json:"message,omitempty"`
}

type BillingService struct {
	c *client.Client
}

func NewBillingService(c *client.Client) *BillingService {
	return &BillingService{c: c}
}

func (s *BillingService) Plans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := s.c.Do(ctx, http.MethodGet, "/api/v1/plan", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *BillingService) Current(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	if err := s.c.Do(ctx, http.MethodGet, "/api/v1/subscription/current", nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *BillingService) Subscribe(ctx context.Context, planID int) (*Subscription, error) {
	var sub Subscription
	if err := s.c.Do(ctx, http.MethodPost, "/api/v1/subscription", map[string]int{"planId": planID}, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Cost quotes the price of switching to planID.
func (s *BillingService) Cost(ctx context.Context, planID int) (*Cost, error) {
	path := withQuery("/api/v1/subscription/cost", url.Values{"planId": {strconv.Itoa(planID)}})
	var cost Cost
	if err := s.c.Do(ctx, http.MethodGet, path, nil, &cost); err != nil {
		return nil, err
	}
	return &cost, nil
}
