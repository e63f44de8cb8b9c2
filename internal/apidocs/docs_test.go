package apidocs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var parsed struct {
		Swagger  string         `json:"swagger"`
		BasePath string         `json:"basePath"`
		Paths    map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "2.0", parsed.Swagger)
	assert.Equal(t, "/api", parsed.BasePath)

	for _, path := range []string{
		"/admin/login", "/admin/users", "/merchant/login", "/merchant/session",
		"/waitlist", "/merchant-applications", "/contact-sales", "/contact",
	} {
		assert.Contains(t, parsed.Paths, path)
	}
}

func TestHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/api/docs/", Handler())

	t.Run("index", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/index.html", http.NoBody))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	})

	t.Run("doc.json", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", http.NoBody))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Shoppermo API")
	})
}
