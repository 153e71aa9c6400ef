package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"activation/internal/config"
)

func testConfig(origins ...string) *config.Config {
	return &config.Config{
		App:  config.AppConfig{Port: "8000"},
		Auth: config.AuthConfig{SecretKey: strings.Repeat("k", 32)},
		CORS: config.CORSConfig{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         600,
		},
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := testConfig("*")
	assert.NoError(t, validateConfig(cfg))

	cfg.Auth.SecretKey = "short"
	assert.Error(t, validateConfig(cfg))

	cfg.Auth.SecretKey = "your-secret-key-change-in-production"
	assert.Error(t, validateConfig(cfg))
}

func TestSetupCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	handler := setupSecurityHeaders(setupCORS(ok, testConfig("https://dash.example.com")), testConfig())

	req := httptest.NewRequest("GET", "/api/v1/leads", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	req = httptest.NewRequest("GET", "/api/v1/leads", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest("OPTIONS", "/api/v1/leads", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestSetupCORSWildcardWithholdsCredentials(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	for _, cfg := range []*config.Config{testConfig("*"), testConfig()} {
		handler := setupCORS(ok, cfg)

		req := httptest.NewRequest("GET", "/api/v1/share/01J0000000000000000000000X", nil)
		req.Header.Set("Origin", "https://any.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Empty(t, rec.Header().Values("Vary"))
	}
}

func TestSetupCORSDebugDoesNotReflectUnlistedOrigin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	cfg := testConfig("https://dash.example.com")
	cfg.App.Debug = true
	handler := setupCORS(ok, cfg)

	req := httptest.NewRequest("GET", "/api/v1/leads", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}
