package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/intelink/console/internal/charts"
)

const testWorldJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"ISO_A2": "US", "NAME": "United States"},
     "geometry": {"type": "Polygon", "coordinates": [[[-120,30],[-80,30],[-80,45],[-120,45],[-120,30]]]}},
    {"type": "Feature", "properties": {"ISO_A2": "DE", "NAME": "Germany"},
     "geometry": {"type": "Polygon", "coordinates": [[[6,47],[15,47],[15,55],[6,55],[6,47]]]}}
  ]
}`

func testWorldLoader(t *testing.T) *charts.WorldLoader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.geojson")
	require.NoError(t, os.WriteFile(path, []byte(testWorldJSON), 0o600))
	return charts.NewWorldLoader(path, nil)
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}
