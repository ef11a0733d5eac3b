package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	r := newTestRouter()
	r.GET("/health", HealthHandler)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	decode(t, w, &resp)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "Intelink Console", resp["service"])
	assert.NotEmpty(t, resp["version"])
	assert.NotEmpty(t, resp["started"])
}
