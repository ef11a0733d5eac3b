package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHeaders(t *testing.T) {
	assert.Nil(t, SanitizeHeaders(nil))

	h := http.Header{}
	h.Set("Authorization", "Bearer abc")
	h.Set("X-Refresh-Token", "r")
	h.Set("User-Agent", "agent\nforged: line")
	h.Set("X-Long", strings.Repeat("a", 500))

	out := SanitizeHeaders(h)
	assert.Equal(t, []string{"<redacted>"}, out["Authorization"])
	assert.Equal(t, []string{"<redacted>"}, out["X-Refresh-Token"])
	assert.NotContains(t, out["User-Agent"][0], "\n")
	assert.LessOrEqual(t, len([]rune(out["X-Long"][0])), maxLoggedValue)
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/api/v1/statistics/abc/country", SanitizePath("/api/v1/statistics/abc/country?token=x"))
	assert.LessOrEqual(t, len([]rune(SanitizePath("/"+strings.Repeat("p", 400)))), maxLoggedValue)
}
