package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// RuntimeConfig holds settings that can change while the server is
// running. It is constructed once in main and injected into both the
// model client (which reads live values through the getter methods)
// and the settings handlers below.
type RuntimeConfig struct {
	mu            sync.RWMutex
	ollamaBaseURL string
	ollamaModel   string
}

// NewRuntimeConfig seeds the runtime config from the static env config.
func NewRuntimeConfig(ollamaBaseURL, ollamaModel string) *RuntimeConfig {
	return &RuntimeConfig{
		ollamaBaseURL: ollamaBaseURL,
		ollamaModel:   ollamaModel,
	}
}

// OllamaBaseURL returns the current Ollama base URL
func (rc *RuntimeConfig) OllamaBaseURL() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.ollamaBaseURL
}

// OllamaModel returns the current Ollama model
func (rc *RuntimeConfig) OllamaModel() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.ollamaModel
}

// UpdateOllamaSettingsRequest represents the request body for updating Ollama settings
type UpdateOllamaSettingsRequest struct {
	OllamaBaseURL string `json:"ollama_base_url" binding:"required"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

// GetOllamaSettings returns current Ollama configuration
// GET /api/settings/ollama
func (rc *RuntimeConfig) GetOllamaSettings(c *gin.Context) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"ollama_base_url": rc.ollamaBaseURL,
		"ollama_model":    rc.ollamaModel,
	})
}

// UpdateOllamaSettings updates Ollama configuration at runtime
// PUT /api/settings/ollama
func (rc *RuntimeConfig) UpdateOllamaSettings(c *gin.Context) {
	var req UpdateOllamaSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rc.mu.Lock()
	rc.ollamaBaseURL = req.OllamaBaseURL
	if req.OllamaModel != "" {
		rc.ollamaModel = req.OllamaModel
	}
	rc.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":         "Ollama settings updated successfully",
		"ollama_base_url": req.OllamaBaseURL,
		"ollama_model":    rc.OllamaModel(),
	})
}

// TestOllamaConnection tests if the Ollama server is reachable
// POST /api/settings/ollama/test
func (rc *RuntimeConfig) TestOllamaConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		// If no body provided, use current config
		req.OllamaBaseURL = rc.OllamaBaseURL()
	}
	if req.OllamaBaseURL == "" {
		req.OllamaBaseURL = rc.OllamaBaseURL()
	}

	// Test connection by calling Ollama's /api/tags endpoint
	resp, err := http.Get(req.OllamaBaseURL + "/api/tags")
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected":   false,
			"status_code": resp.StatusCode,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.OllamaBaseURL,
	})
}
