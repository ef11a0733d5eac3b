package intelink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelink/console/internal/accesscontrol"
	"github.com/intelink/console/internal/apperr"
	"github.com/intelink/console/internal/client"
	"github.com/intelink/console/internal/form"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]interface{}
}

// backend records every request and answers from a route table.
type backend struct {
	mu       sync.Mutex
	requests []recorded
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
}

func newBackend(t *testing.T) (*backend, *API, *client.MemoryStore) {
	t.Helper()
	b := &backend{routes: map[string]func(http.ResponseWriter, *http.Request){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization")}
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		b.mu.Lock()
		b.requests = append(b.requests, rec)
		h, ok := b.routes[r.Method+" "+r.URL.Path]
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no route"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	store := client.NewMemoryStore("access-1", "refresh-1")
	return b, NewAPI(client.New(srv.URL, store)), store
}

func (b *backend) on(route string, status int, body interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[route] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}
}

func (b *backend) last() recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

func TestLoginStoresTokens(t *testing.T) {
	b, api, store := newBackend(t)
	require.NoError(t, store.Clear(context.Background()))
	b.on("POST /api/v1/auth/login", 200, map[string]interface{}{
		"access_token":  "a2",
		"refresh_token": "r2",
		"user":          map[string]string{"id": "u1", "email": "ana@example.com"},
	})

	resp, err := api.Auth.Login(context.Background(), form.LoginForm{Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)

	req := b.last()
	assert.Empty(t, req.Auth)
	assert.Equal(t, "ana@example.com", req.Body["email"])

	access, refresh, _ := store.Tokens(context.Background())
	assert.Equal(t, "a2", access)
	assert.Equal(t, "r2", refresh)
}

func TestLogoutClearsTokensEvenOnError(t *testing.T) {
	b, api, store := newBackend(t)
	b.on("POST /api/v1/auth/logout", 500, map[string]string{"message": "boom"})

	err := api.Auth.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", apperr.Message(err))
	assert.Equal(t, "Bearer access-1", b.last().Auth)

	access, _, _ := store.Tokens(context.Background())
	assert.Empty(t, access)
}

func TestLogoutWithExpiredSessionIsSuppressed(t *testing.T) {
	b, api, store := newBackend(t)
	b.on("POST /api/v1/auth/logout", 401, map[string]string{"message": "Token expired"})

	err := api.Auth.Logout(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsSuppressed(err))

	access, _, _ := store.Tokens(context.Background())
	assert.Empty(t, access)
}

func TestExplicitRefreshKeepsRefreshToken(t *testing.T) {
	b, api, store := newBackend(t)
	b.on("POST /api/v1/auth/refresh", 200, map[string]string{"access_token": "a3"})

	require.NoError(t, api.Auth.Refresh(context.Background()))
	assert.Equal(t, "refresh-1", b.last().Body["refresh_token"])

	access, refresh, _ := store.Tokens(context.Background())
	assert.Equal(t, "a3", access)
	assert.Equal(t, "refresh-1", refresh)
}

func TestCreateURLMergesAccessControl(t *testing.T) {
	b, api, _ := newBackend(t)
	b.on("POST /url", 201, map[string]interface{}{"shortCode": "xyz", "originalUrl": "https://example.com"})

	f := form.CreateURLForm{OriginalURL: " https://example.com ", Password: "pw12"}
	ac := accesscontrol.Data{Mode: accesscontrol.ModeBlock, Countries: []string{"RU"}, IPRanges: []string{"10.0.0.0/8"}}

	u, err := api.URLs.Create(context.Background(), NewCreateURLRequest(f, ac))
	require.NoError(t, err)
	assert.Equal(t, "xyz", u.ShortCode)

	body := b.last().Body
	assert.Equal(t, "https://example.com", body["originalUrl"])
	assert.Equal(t, "pw12", body["password"])
	assert.Equal(t, "BLOCK", body["accessControlMode"])
	assert.Equal(t, []interface{}{"RU"}, body["accessControlCountries"])
	assert.Equal(t, []interface{}{"10.0.0.0/8"}, body["accessControlIpRanges"])
	assert.NotContains(t, body, "description")
}

func TestCreateURLWithoutRestrictionsSendsNone(t *testing.T) {
	req := NewCreateURLRequest(form.CreateURLForm{OriginalURL: "https://example.com"}, accesscontrol.Data{Mode: accesscontrol.ModeAllow})
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"originalUrl":"https://example.com","accessControlMode":"NONE","accessControlCountries":[],"accessControlIpRanges":[]}`, string(raw))
}

func TestUpdateURLOmitsUntouchedFields(t *testing.T) {
	desc := "launch"
	raw, err := json.Marshal(UpdateURLRequest{Description: &desc})
	require.NoError(t, err)
	assert.JSONEq(t, `{"description":"launch"}`, string(raw))
}

func TestURLPaths(t *testing.T) {
	b, api, _ := newBackend(t)
	b.on("GET /url/search", 200, Page[ShortURL]{Items: []ShortURL{{ShortCode: "a"}}, Page: 1, TotalPages: 2})
	b.on("PUT /url/abc/disable", 204, nil)
	b.on("DELETE /url/abc", 204, nil)
	b.on("GET /url", 200, Page[ShortURL]{})

	page, err := api.URLs.Search(context.Background(), " promo ", ListOptions{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.True(t, page.HasNext())
	assert.Equal(t, "limit=20&page=1&q=promo", b.last().Query)

	require.NoError(t, api.URLs.Disable(context.Background(), "abc"))
	assert.Equal(t, "PUT", b.last().Method)
	require.NoError(t, api.URLs.Delete(context.Background(), "abc"))

	_, err = api.URLs.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, b.last().Query)

	assert.ErrorIs(t, api.URLs.Enable(context.Background(), "  "), ErrEmptyShortCode)

	_, err = api.URLs.Get(context.Background(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDimensionsFanOut(t *testing.T) {
	b, api, _ := newBackend(t)
	b.on("GET /statistics/country/abc", 200, DimensionStats{TotalClicks: 5, Data: []StatEntry{{Name: "us", Clicks: 3}, {Name: "Unknown", Clicks: 2}}})
	b.on("GET /statistics/browser/abc", 200, DimensionStats{Dimension: DimensionBrowser, Data: []StatEntry{{Name: "Firefox", Clicks: 1}}})

	got, err := api.Stats.Dimensions(context.Background(), "abc", DimensionCountry, DimensionBrowser)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, DimensionCountry, got[DimensionCountry].Dimension)
	assert.Equal(t, "Firefox", got[DimensionBrowser].Bars()[0].Label)

	geo := got[DimensionCountry].Geography()
	require.Len(t, geo, 1)
	assert.Equal(t, "US", geo[0].Code)
	assert.Equal(t, 3.0, geo[0].Value)
}

func TestDimensionsFailsWholeBatch(t *testing.T) {
	b, api, _ := newBackend(t)
	b.on("GET /statistics/country/abc", 200, DimensionStats{})
	b.on("GET /statistics/os/abc", 500, map[string]string{"message": "aggregation unavailable"})

	got, err := api.Stats.Dimensions(context.Background(), "abc", DimensionCountry, DimensionOS)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, "aggregation unavailable", apperr.Message(err))
}

func TestTimeSeriesAndOverview(t *testing.T) {
	b, api, _ := newBackend(t)
	b.on("GET /statistics/timeseries/abc", 200, TimeSeries{Data: []TimeSeriesPoint{{Time: "2026-01-01", Clicks: 4}}})
	b.on("GET /statistics/overview/device", 200, DimensionStats{Data: []StatEntry{{Name: "Mobile", Clicks: 9}}})

	ts, err := api.Stats.TimeSeries(context.Background(), "abc", "")
	require.NoError(t, err)
	assert.Equal(t, GranularityDay, ts.Granularity)
	assert.Equal(t, "granularity=day", b.last().Query)
	assert.Equal(t, 4.0, ts.Points()[0].Value)

	ov, err := api.Stats.Overview(context.Background(), DimensionDevice)
	require.NoError(t, err)
	assert.Equal(t, "Mobile", ov.Slices()[0].Name)
}

func TestParseDimensionAndGranularity(t *testing.T) {
	d, err := ParseDimension(" OS ")
	require.NoError(t, err)
	assert.Equal(t, DimensionOS, d)
	_, err = ParseDimension("referrer")
	assert.ErrorIs(t, err, ErrUnknownDimension)

	granularities := []struct {
		in   string
		want Granularity
	}{
		{"", GranularityDay},
		{"hour", GranularityHour},
		{"Daily", GranularityDay},
		{"month", GranularityMonth},
		{"year", GranularityYear},
		{" yearly ", GranularityYear},
	}
	for _, tt := range granularities {
		g, err := ParseGranularity(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, g, tt.in)
	}
	for _, bad := range []string{"minute", "week"} {
		_, err = ParseGranularity(bad)
		assert.ErrorIs(t, err, ErrUnknownGranularity, bad)
	}
}

func TestAPIKeysAndBilling(t *testing.T) {
	b, api, _ := newBackend(t)
	b.on("POST /api-keys", 201, APIKey{ID: "k1", Name: "ci", Secret: "ilk_secret"})
	b.on("GET /api/v1/subscription/cost", 200, Cost{PlanID: 2, Amount: 4.5})
	b.on("GET /api/v1/plan", 200, []Plan{{ID: 1, Name: "Free"}, {ID: 2, Name: "Pro", Price: 1200, BillingPeriod: "month"}})

	key, err := api.APIKeys.Create(context.Background(), " ci ", 30)
	require.NoError(t, err)
	assert.Equal(t, "ilk_secret", key.Secret)
	assert.Equal(t, "ci", b.last().Body["name"])
	assert.Equal(t, float64(30), b.last().Body["expiresInDays"])

	_, err = api.APIKeys.Create(context.Background(), "", 0)
	assert.ErrorIs(t, err, ErrEmptyKeyName)

	cost, err := api.Billing.Cost(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 4.5, cost.Amount)
	assert.Equal(t, "planId=2", b.last().Query)

	plans, err := api.Billing.Plans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Free", plans[0].PriceLabel())
	assert.Equal(t, "$1,200.00 / month", plans[1].PriceLabel())
}

func TestSubscriptionActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(24 * time.Hour)
	assert.True(t, Subscription{Status: "ACTIVE"}.Active(now))
	assert.True(t, Subscription{Status: "ACTIVE", EndDate: &end}.Active(now))
	assert.False(t, Subscription{Status: "ACTIVE", EndDate: &end}.Active(end))
	assert.False(t, Subscription{Status: "CANCELLED"}.Active(now))
}
