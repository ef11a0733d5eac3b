package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intelink/console/internal/charts"
)

// maxChartSize bounds the requested canvas in either dimension.
const maxChartSize = 4096

// ChartsHandler renders client-supplied aggregates as SVG.
type ChartsHandler struct {
	world *charts.WorldLoader
}

func NewChartsHandler(world *charts.WorldLoader) *ChartsHandler {
	return &ChartsHandler{world: world}
}

type chartRequest[T any] struct {
	Data    []T            `json:"data"`
	Options charts.Options `json:"options"`
}

func bindChart[T any](c *gin.Context) (chartRequest[T], bool) {
	var req chartRequest[T]
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	if req.Options.Width > maxChartSize || req.Options.Height > maxChartSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chart dimensions too large"})
		return req, false
	}
	return req, true
}

// Bar handles POST /api/v1/charts/bar
func (h *ChartsHandler) Bar(c *gin.Context) {
	req, ok := bindChart[charts.BarDatum](c)
	if !ok {
		return
	}
	renderSVG(c, "bar", func(buf *bytes.Buffer) error {
		return charts.Bar(buf, req.Data, req.Options)
	})
}

// Line handles POST /api/v1/charts/line
func (h *ChartsHandler) Line(c *gin.Context) {
	req, ok := bindChart[charts.LineDatum](c)
	if !ok {
		return
	}
	renderSVG(c, "line", func(buf *bytes.Buffer) error {
		return charts.Line(buf, req.Data, req.Options)
	})
}

// Pie handles POST /api/v1/charts/pie
func (h *ChartsHandler) Pie(c *gin.Context) {
	req, ok := bindChart[charts.PieDatum](c)
	if !ok {
		return
	}
	renderSVG(c, "pie", func(buf *bytes.Buffer) error {
		return charts.Pie(buf, req.Data, req.Options)
	})
}

// Map handles POST /api/v1/charts/map
func (h *ChartsHandler) Map(c *gin.Context) {
	req, ok := bindChart[charts.GeographyDatum](c)
	if !ok {
		return
	}
	renderSVG(c, "map", func(buf *bytes.Buffer) error {
		world, err := loadWorld(c, h.world)
		if err != nil {
			return err
		}
		return charts.Choropleth(buf, world, req.Data, req.Options)
	})
}
