package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "/api/v1/share/:id", endpointLabel("/api/v1/share/01JB8X1M2K3N4P5Q6R7S8T9V0W"))
	assert.Equal(t, "/api/v1/moderation/:id/sms", endpointLabel("/api/v1/moderation/01JB8X1M2K3N4P5Q6R7S8T9V0W/sms"))
	assert.Equal(t, "/api/v1/leads/lookup", endpointLabel("/api/v1/leads/lookup"))
}

func TestPrometheusMiddlewareCapturesStatus(t *testing.T) {
	handler := PrometheusMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
