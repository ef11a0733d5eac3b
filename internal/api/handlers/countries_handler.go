package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/intelink/console/internal/countries"
)

// ListCountries handles GET /api/v1/countries?q=&selected=US,FR
func ListCountries(c *gin.Context) {
	var selected []string
	if raw := c.Query("selected"); raw != "" {
		selected = strings.Split(raw, ",")
	}
	c.JSON(http.StatusOK, countries.Options(c.Query("q"), selected))
}

// GetCountry handles GET /api/v1/countries/:code
func GetCountry(c *gin.Context) {
	country, ok := countries.Lookup(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown country code"})
		return
	}
	c.JSON(http.StatusOK, country)
}
