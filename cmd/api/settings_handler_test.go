package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSettingsRouter(rc *RuntimeConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/settings/ollama", rc.GetOllamaSettings)
	r.PUT("/api/settings/ollama", rc.UpdateOllamaSettings)
	return r
}

func TestRuntimeConfig(t *testing.T) {
	t.Run("get returns the seeded values", func(t *testing.T) {
		rc := NewRuntimeConfig("http://localhost:11434", "llama3")
		r := setupSettingsRouter(rc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/settings/ollama", nil)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "http://localhost:11434")
		assert.Contains(t, w.Body.String(), "llama3")
	})

	t.Run("update changes the values the getters report", func(t *testing.T) {
		rc := NewRuntimeConfig("http://localhost:11434", "llama3")
		r := setupSettingsRouter(rc)

		body := `{"ollama_base_url": "http://ollama.internal:11434", "ollama_model": "mistral"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/settings/ollama", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://ollama.internal:11434", rc.OllamaBaseURL())
		assert.Equal(t, "mistral", rc.OllamaModel())
	})

	t.Run("omitted model keeps the previous one", func(t *testing.T) {
		rc := NewRuntimeConfig("http://localhost:11434", "llama3")
		r := setupSettingsRouter(rc)

		body := `{"ollama_base_url": "http://other:11434"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/settings/ollama", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://other:11434", rc.OllamaBaseURL())
		assert.Equal(t, "llama3", rc.OllamaModel())
	})

	t.Run("missing base url is a bad request", func(t *testing.T) {
		rc := NewRuntimeConfig("http://localhost:11434", "llama3")
		r := setupSettingsRouter(rc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/settings/ollama", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "http://localhost:11434", rc.OllamaBaseURL())
	})

	t.Run("instances are independent", func(t *testing.T) {
		a := NewRuntimeConfig("http://a:11434", "llama3")
		b := NewRuntimeConfig("http://b:11434", "mistral")

		r := setupSettingsRouter(a)
		body := `{"ollama_base_url": "http://changed:11434"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/settings/ollama", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://changed:11434", a.OllamaBaseURL())
		assert.Equal(t, "http://b:11434", b.OllamaBaseURL())
	})
}
