package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/intelink/console/internal/accesscontrol"
	"github.com/intelink/console/internal/api/middleware"
	"github.com/intelink/console/internal/charts"
	"github.com/intelink/console/internal/geo"
	"github.com/intelink/console/internal/metrics"
)

// AccessControlHandler serves the stateless access-control helpers used by
// the create-URL screens.
type AccessControlHandler struct {
	resolver geo.Resolver
	world    *charts.WorldLoader
}

func NewAccessControlHandler(resolver geo.Resolver, world *charts.WorldLoader) *AccessControlHandler {
	if resolver == nil {
		resolver = geo.Unavailable{}
	}
	return &AccessControlHandler{resolver: resolver, world: world}
}

type validateRequest struct {
	Value string `json:"value"`
	// Existing entries, to report duplicates the way the list editor does.
	Existing []string `json:"existing"`
}

// Validate handles POST /api/v1/access-control/validate
func (h *AccessControlHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := accesscontrol.Classify(req.Value)
	if result.Valid() {
		for _, e := range req.Existing {
			if strings.TrimSpace(e) == result.Input {
				result.Message = accesscontrol.MsgDuplicateIP
				break
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"input":   result.Input,
		"kind":    result.Kind,
		"prefix":  result.Prefix,
		"size":    result.Size,
		"valid":   result.Valid() && result.Message == "",
		"message": result.Message,
	})
}

// Preview handles POST /api/v1/access-control/preview
func (h *AccessControlHandler) Preview(c *gin.Context) {
	var d accesscontrol.Data
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, accesscontrol.Preview(d))
}

// PreviewMap handles POST /api/v1/access-control/preview.svg
func (h *AccessControlHandler) PreviewMap(c *gin.Context) {
	var d accesscontrol.Data
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	summary := accesscontrol.Preview(d)
	renderSVG(c, "preview", func(buf *bytes.Buffer) error {
		world, err := loadWorld(c, h.world)
		if err != nil {
			return err
		}
		return charts.Highlight(buf, world, summary.MapCountries, summary.Color, charts.Options{Title: summary.Headline})
	})
}

type evaluateRequest struct {
	Config  accesscontrol.Data `json:"config"`
	IP      string             `json:"ip"`
	Country string             `json:"country"`
}

// Evaluate handles POST /api/v1/access-control/evaluate. When only an IP is
// given the visitor's country is resolved from the GeoIP database.
func (h *AccessControlHandler) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, problems := accesscontrol.FromData(req.Config)
	if len(problems) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid access control entries", "problems": problems})
		return
	}

	country := req.Country
	if country == "" && req.IP != "" {
		resolved, err := geo.Lookup(h.resolver, req.IP)
		switch {
		case err == nil:
			country = resolved
		case errors.Is(err, geo.ErrInvalidIP):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid IP address"})
			return
		default:
			middleware.GetRequestLogger(c).WithError(err).Debug("visitor country not resolved")
		}
	}

	decision, err := accesscontrol.Evaluate(state.Snapshot(), req.IP, country)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metrics.IncAccessDecision(decision.Allowed)
	c.JSON(http.StatusOK, gin.H{
		"allowed": decision.Allowed,
		"reason":  decision.Reason,
		"mode":    decision.Mode,
		"country": country,
	})
}

// Payload handles POST /api/v1/access-control/payload. Entries the editor
// would reject are reported instead of serialized.
func (h *AccessControlHandler) Payload(c *gin.Context) {
	var d accesscontrol.Data
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, problems := accesscontrol.FromData(d)
	if len(problems) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid access control entries", "problems": problems})
		return
	}
	c.JSON(http.StatusOK, state.Payload())
}
