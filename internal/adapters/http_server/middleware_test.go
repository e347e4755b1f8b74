package httpserver

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestAccessLog_UsesRoutePatternAndStatus(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(AccessLog(zerolog.New(&buf)))
	r.Post("/favorites/{id}/toggle", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/favorites/42/toggle", nil))

	out := buf.String()
	assert.Contains(t, out, `"route":"/favorites/{id}/toggle"`)
	assert.Contains(t, out, `"status":418`)
	assert.False(t, strings.Contains(out, "/favorites/42/toggle"))
}

func TestAccessLog_ServerErrorsLogAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(AccessLog(zerolog.New(&buf)))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(r))

	r.RemoteAddr = "192.168.1.9"
	assert.Equal(t, "192.168.1.9", clientIP(r))
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	sw := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _ = sw.Write([]byte("x"))
	assert.Equal(t, http.StatusOK, sw.Status())
}
