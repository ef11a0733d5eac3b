package intelink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/intelink/console/internal/charts"
	"github.com/intelink/console/internal/client"
	"github.com/intelink/console/internal/countries"
)

// Dimension is a categorical breakdown of clicks.
type Dimension string

const (
	DimensionCountry Dimension = "country"
	DimensionCity    Dimension = "city"
	DimensionBrowser Dimension = "browser"
	DimensionOS      Dimension = "os"
	DimensionDevice  Dimension = "device"
)

// Dimensions lists every breakdown the backend aggregates.
var Dimensions = []Dimension{DimensionCountry, DimensionCity, DimensionBrowser, DimensionOS, DimensionDevice}

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dimensions {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// Granularity is the bucket width of a time series.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

var (
	ErrUnknownDimension   = errors.New("unknown statistics dimension")
	ErrUnknownGranularity = errors.New("unknown time series granularity")
)

// ParseGranularity validates a granularity; empty means day. The adjective
// forms (hourly, daily, monthly, yearly) are accepted too.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GranularityDay, nil
	case GranularityHour, GranularityDay, GranularityMonth, GranularityYear:
		return g, nil
	case "hourly":
		return GranularityHour, nil
	case "daily":
		return GranularityDay, nil
	case "monthly":
		return GranularityMonth, nil
	case "yearly":
		return GranularityYear, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
}

// StatEntry is one category of a dimension breakdown.
type StatEntry struct {
	Name       string  `json:"name"`
	Clicks     int64   `json:"clicks"`
	Percentage float64 `json:"percentage"`
}

// DimensionStats is the click breakdown along one dimension.
type DimensionStats struct {
	ShortCode   string      `json:"shortCode,omitempty"`
	Dimension   Dimension   `json:"dimension"`
	TotalClicks int64       `json:"totalClicks"`
	Data        []StatEntry `json:"data"`
}

// Bars converts the breakdown into bar chart categories.
func (s DimensionStats) Bars() []charts.BarDatum {
	out := make([]charts.BarDatum, 0, len(s.Data))
	for _, e := range s.Data {
		out = append(out, charts.BarDatum{Label: e.Name, Value: float64(e.Clicks)})
	}
	return out
}

// Slices converts the breakdown into pie slices.
func (s DimensionStats) Slices() []charts.PieDatum {
	out := make([]charts.PieDatum, 0, len(s.Data))
	for _, e := range s.Data {
		out = append(out, charts.PieDatum{Name: e.Name, Value: float64(e.Clicks)})
	}
	return out
}

// Geography converts a country breakdown into map values. Entries that are
// not ISO codes are dropped; duplicate codes are summed.
func (s DimensionStats) Geography() []charts.GeographyDatum {
	totals := map[string]float64{}
	var order []string
	for _, e := range s.Data {
		code := countries.Normalize(e.Name)
		if !countries.Valid(code) {
			continue
		}
		if _, seen := totals[code]; !seen {
			order = append(order, code)
		}
		totals[code] += float64(e.Clicks)
	}
	out := make([]charts.GeographyDatum, 0, len(order))
	for _, code := range order {
		out = append(out, charts.GeographyDatum{Code: code, Value: totals[code]})
	}
	return out
}

// TimeSeriesPoint is the click count of one bucket.
type TimeSeriesPoint struct {
	Time   string `json:"time"`
	Clicks int64  `json:"clicks"`
}

// TimeSeries is a click history at one granularity.
type TimeSeries struct {
	ShortCode   string            `json:"shortCode,omitempty"`
	Granularity Granularity       `json:"granularity"`
	Data        []TimeSeriesPoint `json:"data"`
}

// Points converts the series into line chart values.
func (t TimeSeries) Points() []charts.LineDatum {
	out := make([]charts.LineDatum, 0, len(t.Data))
	for _, p := range t.Data {
		out = append(out, charts.LineDatum{Time: p.Time, Value: float64(p.Clicks)})
	}
	return out
}

type StatsService struct {
	c *client.Client
}

func NewStatsService(c *client.Client) *StatsService {
	return &StatsService{c: c}
}

// Dimension fetches the breakdown of one short code along dim.
func (s *StatsService) Dimension(ctx context.Context, code string, dim Dimension) (*DimensionStats, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyShortCode
	}
	path := "/statistics/" + url.PathEscape(string(dim)) + "/" + url.PathEscape(code)
	return s.dimension(ctx, path, dim)
}

// Overview fetches the breakdown along dim across all of the user's links.
func (s *StatsService) Overview(ctx context.Context, dim Dimension) (*DimensionStats, error) {
	return s.dimension(ctx, "/statistics/overview/"+url.PathEscape(string(dim)), dim)
}

func (s *StatsService) dimension(ctx context.Context, path string, dim Dimension) (*DimensionStats, error) {
	var stats DimensionStats
	if err := s.c.Do(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}
	if stats.Dimension == "" {
		stats.Dimension = dim
	}
	return &stats, nil
}

// Dimensions fetches several breakdowns in parallel. A single failure fails
// the whole batch and cancels the remaining requests.
func (s *StatsService) Dimensions(ctx context.Context, code string, dims ...Dimension) (map[Dimension]*DimensionStats, error) {
	if len(dims) == 0 {
		dims = Dimensions
	}
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	out := make(map[Dimension]*DimensionStats, len(dims))
	for _, dim := range dims {
		dim := dim
		g.Go(func() error {
			stats, err := s.Dimension(gctx, code, dim)
			if err != nil {
				return fmt.Errorf("%s statistics: %w", dim, err)
			}
			mu.Lock()
			out[dim] = stats
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// TimeSeries fetches the click history of one short code; an empty code
// returns the account-wide history.
func (s *StatsService) TimeSeries(ctx context.Context, code string, granularity Granularity) (*TimeSeries, error) {
	path := "/statistics/timeseries"
	if code = strings.TrimSpace(code); code != "" {
		path += "/" + url.PathEscape(code)
	}
	if granularity == "" {
		granularity = GranularityDay
	}
	path = withQuery(path, url.Values{"granularity": {string(granularity)}})

	var ts TimeSeries
	if err := s.c.Do(ctx, http.MethodGet, path, nil, &ts); err != nil {
		return nil, err
	}
	if ts.Granularity == "" {
		ts.Granularity = granularity
	}
	return &ts, nil
}
