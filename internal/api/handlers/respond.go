package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/intelink/console/internal/api/middleware"
	"github.com/intelink/console/internal/apperr"
	"github.com/intelink/console/internal/charts"
	"github.com/intelink/console/internal/metrics"
)

const svgContentType = "image/svg+xml; charset=utf-8"

// renderSVG runs render into a buffer so a failing renderer never leaves a
// half-written document on the wire.
func renderSVG(c *gin.Context, kind string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		if errors.Is(err, charts.ErrNoWorldSource) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "world map data is not configured"})
			return
		}
		middleware.GetRequestLogger(c).WithError(err).WithField("chart", kind).Error("chart render failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render chart"})
		return
	}
	metrics.IncChartRender(kind)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, svgContentType, buf.Bytes())
}

// upstreamError maps a backend failure onto the dashboard's response.
func upstreamError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch apperr.KindOf(err) {
	case apperr.KindAuth:
		status = apperr.StatusOf(err)
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation:
		status = http.StatusBadRequest
	}
	if status == 0 {
		status = http.StatusUnauthorized
	}
	middleware.GetRequestLogger(c).WithError(err).WithField("status", status).Warn("backend request failed")
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return 0, false
	}
	return uint(id), true
}

func loadWorld(c *gin.Context, loader *charts.WorldLoader) (*charts.World, error) {
	if loader == nil {
		return nil, charts.ErrNoWorldSource
	}
	return loader.Load(c.Request.Context())
}
