package charts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/singleflight"
)

// ErrNoWorldSource is returned when no boundaries file or URL is configured.
var ErrNoWorldSource = errors.New("world boundaries source not configured")

// codeProperties are the feature properties probed, in order, for the ISO alpha-2 code.
var codeProperties = []string{"ISO_A2", "iso_a2", "ISO3166-1-Alpha-2", "ISO_A2_EH", "iso_a2_eh", "code"}

// World is a set of country outlines keyed by ISO alpha-2 code.
type World struct {
	countries []country
}

type country struct {
	code     string
	name     string
	polygons []orb.Polygon
}

// ParseWorld reads a GeoJSON FeatureCollection of country boundaries.
// Features without a usable two-letter code are skipped.
func ParseWorld(data []byte) (*World, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse world geojson: %w", err)
	}

	w := &World{}
	for _, f := range fc.Features {
		code := featureCode(f)
		if code == "" {
			continue
		}
		var polys []orb.Polygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polys = []orb.Polygon{g}
		case orb.MultiPolygon:
			polys = []orb.Polygon(g)
		default:
			continue
		}
		name := f.Properties.MustString("NAME", f.Properties.MustString("name", code))
		w.countries = append(w.countries, country{code: code, name: name, polygons: polys})
	}
	if len(w.countries) == 0 {
		return nil, errors.New("world geojson has no country features")
	}
	sort.Slice(w.countries, func(i, j int) bool { return w.countries[i].code < w.countries[j].code })
	return w, nil
}

func featureCode(f *geojson.Feature) string {
	for _, key := range codeProperties {
		if v, ok := f.Properties[key].(string); ok {
			v = strings.ToUpper(strings.TrimSpace(v))
			if len(v) == 2 {
				return v
			}
		}
	}
	if id, ok := f.ID.(string); ok && len(id) == 2 {
		return strings.ToUpper(id)
	}
	return ""
}

// Codes lists the country codes present in the dataset.
func (w *World) Codes() []string {
	out := make([]string, 0, len(w.countries))
	for _, c := range w.countries {
		out = append(out, c.code)
	}
	return out
}

// WorldLoader loads the boundaries dataset once from a file path or an
// http(s) URL. Concurrent callers share one load; failures are not cached.
type WorldLoader struct {
	source string
	client *http.Client

	group singleflight.Group
	mu    sync.RWMutex
	world *World
}

// NewWorldLoader creates a loader. A nil client uses http.DefaultClient.
func NewWorldLoader(source string, client *http.Client) *WorldLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &WorldLoader{source: source, client: client}
}

// Load returns the cached dataset or loads it.
func (l *WorldLoader) Load(ctx context.Context) (*World, error) {
	l.mu.RLock()
	w := l.world
	l.mu.RUnlock()
	if w != nil {
		return w, nil
	}
	if l.source == "" {
		return nil, ErrNoWorldSource
	}

	// The shared load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := l.group.Do("world", func() (interface{}, error) {
		data, err := l.read(loadCtx)
		if err != nil {
			return nil, err
		}
		world, err := ParseWorld(data)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.world = world
		l.mu.Unlock()
		return world, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*World), nil
}

func (l *WorldLoader) read(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(l.source, "http://") && !strings.HasPrefix(l.source, "https://") {
		data, err := os.ReadFile(l.source)
		if err != nil {
			return nil, fmt.Errorf("read world geojson: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch world geojson: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch world geojson: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
