package main

import (
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"activation/internal/config"
)

var securityHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
	"X-XSS-Protection":       "1; mode=block",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
	"Permissions-Policy":     "geolocation=(), microphone=(), camera=()",
}

// setupSecurityHeaders adds security headers to responses
func setupSecurityHeaders(handler http.Handler, cfg *config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for name, value := range securityHeaders {
			h.Set(name, value)
		}
		h.Set("Server", "")

		// HSTS only when served over TLS in production
		if !cfg.App.Debug && r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		handler.ServeHTTP(w, r)
	})
}

// setupCORS lets the dashboard and share page origins call the API.
func setupCORS(handler http.Handler, cfg *config.Config) http.Handler {
	origins := cfg.CORS.AllowedOrigins
	wildcard := len(origins) == 0 || slices.Contains(origins, "*")
	methods := strings.Join(cfg.CORS.AllowedMethods, ", ")
	headers := strings.Join(cfg.CORS.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.CORS.MaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" && slices.Contains(origins, origin)
		if origin != "" && !wildcard && !allowed && !cfg.App.Debug {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		// Credentials are only ever granted to an explicitly listed origin.
		h := w.Header()
		switch {
		case allowed:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Credentials", "true")
		case wildcard:
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		h.Set("Access-Control-Expose-Headers", "Content-Type, Authorization, X-Request-ID")
		h.Set("Access-Control-Max-Age", maxAge)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		handler.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogging writes one [REQUEST] and one [RESPONSE] line per call.
// Health checks and scrapes are not logged.
func requestLogging(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			handler.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		log.Printf("[REQUEST] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		handler.ServeHTTP(rec, r)

		outcome := "OK"
		if rec.status >= 400 {
			outcome = "ERROR"
		}
		log.Printf("[RESPONSE] %s %s -> %d %s (%v) id=%s", r.Method, r.URL.Path, rec.status, outcome, time.Since(start), w.Header().Get("X-Request-ID"))
	})
}
