package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/intelink/console/internal/accesscontrol"
	"github.com/intelink/console/internal/models"
	"github.com/intelink/console/internal/services"
)

type AccessPresetHandler struct {
	service *services.AccessPresetService
}

func NewAccessPresetHandler(db *gorm.DB) *AccessPresetHandler {
	return &AccessPresetHandler{service: services.NewAccessPresetService(db)}
}

// presetResponse adds the decoded configuration and its wire payload to a
// stored preset.
type presetResponse struct {
	models.AccessPreset
	Config  accesscontrol.Data    `json:"config"`
	Payload accesscontrol.Payload `json:"payload"`
}

func toPresetResponse(p *models.AccessPreset) presetResponse {
	d, err := services.PresetData(p)
	if err != nil {
		d = accesscontrol.Data{Mode: accesscontrol.Mode(p.Mode), Countries: []string{}, IPRanges: []string{}}
	}
	return presetResponse{AccessPreset: *p, Config: d, Payload: d.Payload()}
}

func presetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPresetNotFound), errors.Is(err, services.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPresetNameRequired),
		errors.Is(err, services.ErrInvalidPresetMode),
		errors.Is(err, services.ErrInvalidPresetRule),
		errors.Is(err, services.ErrPresetEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Create handles POST /api/v1/access-presets
func (h *AccessPresetHandler) Create(c *gin.Context) {
	var p models.AccessPreset
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.ID = 0
	if err := h.service.Create(&p); err != nil {
		presetError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPresetResponse(&p))
}

// List handles GET /api/v1/access-presets
func (h *AccessPresetHandler) List(c *gin.Context) {
	presets, err := h.service.List()
	if err != nil {
		presetError(c, err)
		return
	}
	out := make([]presetResponse, 0, len(presets))
	for i := range presets {
		out = append(out, toPresetResponse(&presets[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /api/v1/access-presets/:id
func (h *AccessPresetHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.service.GetByID(id)
	if err != nil {
		presetError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPresetResponse(p))
}

// Update handles PUT /api/v1/access-presets/:id
func (h *AccessPresetHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var updates models.AccessPreset
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.service.Update(id, &updates)
	if err != nil {
		presetError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPresetResponse(p))
}

// Delete handles DELETE /api/v1/access-presets/:id
func (h *AccessPresetHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(id); err != nil {
		presetError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "access preset deleted"})
}

// Evaluate handles POST /api/v1/access-presets/:id/evaluate
func (h *AccessPresetHandler) Evaluate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		IP      string `json:"ip"`
		Country string `json:"country"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	decision, err := h.service.Evaluate(id, req.IP, req.Country)
	if err != nil {
		if errors.Is(err, accesscontrol.ErrNoVisitor) || errors.Is(err, accesscontrol.ErrInvalidIPAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		presetError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// GetTemplates handles GET /api/v1/access-presets/templates
func (h *AccessPresetHandler) GetTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Templates())
}

// CreateFromTemplate handles POST /api/v1/access-presets/templates/:template
func (h *AccessPresetHandler) CreateFromTemplate(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	// The body is optional.
	_ = c.ShouldBindJSON(&req)

	p, err := h.service.CreateFromTemplate(c.Param("template"), req.Name)
	if err != nil {
		presetError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPresetResponse(p))
}
