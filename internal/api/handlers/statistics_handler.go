package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/intelink/console/internal/api/middleware"
	"github.com/intelink/console/internal/charts"
	"github.com/intelink/console/internal/client"
	"github.com/intelink/console/internal/intelink"
)

// StatisticsHandler fetches click statistics from the backend with the
// caller's bearer token and renders them.
type StatisticsHandler struct {
	backendURL string
	timeout    time.Duration
	world      *charts.WorldLoader
}

func NewStatisticsHandler(backendURL string, timeout time.Duration, world *charts.WorldLoader) *StatisticsHandler {
	return &StatisticsHandler{backendURL: backendURL, timeout: timeout, world: world}
}

// stats builds a per-request service; the dashboard never stores user tokens.
func (h *StatisticsHandler) stats(c *gin.Context) *intelink.StatsService {
	store := client.NewMemoryStore(middleware.BearerToken(c), "")
	return intelink.NewStatsService(client.New(h.backendURL, store, client.WithTimeout(h.timeout)))
}

// Dimension handles GET /api/v1/statistics/:code/:dimension
//
// ?chart=bar|pie|map selects the SVG rendering (map only for country,
// default pie); ?format=json returns the raw breakdown instead.
// The dimension "timeseries" renders a line chart at ?granularity=.
func (h *StatisticsHandler) Dimension(c *gin.Context) {
	code := c.Param("code")
	if c.Param("dimension") == "timeseries" {
		h.timeSeries(c, code)
		return
	}

	dim, err := intelink.ParseDimension(c.Param("dimension"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chart := c.DefaultQuery("chart", "pie")
	if chart == "map" && dim != intelink.DimensionCountry {
		c.JSON(http.StatusBadRequest, gin.H{"error": "map charts are only available for the country dimension"})
		return
	}
	if chart != "bar" && chart != "pie" && chart != "map" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chart must be bar, pie or map"})
		return
	}

	stats, err := h.stats(c).Dimension(c.Request.Context(), code, dim)
	if err != nil {
		upstreamError(c, err)
		return
	}
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, stats)
		return
	}

	opts := charts.Options{Title: c.Query("title")}
	renderSVG(c, chart, func(buf *bytes.Buffer) error {
		switch chart {
		case "bar":
			return charts.Bar(buf, stats.Bars(), opts)
		case "map":
			world, err := loadWorld(c, h.world)
			if err != nil {
				return err
			}
			return charts.Choropleth(buf, world, stats.Geography(), opts)
		default:
			return charts.Pie(buf, stats.Slices(), opts)
		}
	})
}

func (h *StatisticsHandler) timeSeries(c *gin.Context, code string) {
	granularity, err := intelink.ParseGranularity(c.Query("granularity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	series, err := h.stats(c).TimeSeries(c.Request.Context(), code, granularity)
	if err != nil {
		upstreamError(c, err)
		return
	}
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, series)
		return
	}
	renderSVG(c, "line", func(buf *bytes.Buffer) error {
		return charts.Line(buf, series.Points(), charts.Options{Title: c.Query("title")})
	})
}

// Overview handles GET /api/v1/statistics/overview/:dimension
func (h *StatisticsHandler) Overview(c *gin.Context) {
	dim, err := intelink.ParseDimension(c.Param("dimension"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stats, err := h.stats(c).Overview(c.Request.Context(), dim)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
