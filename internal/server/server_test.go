package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestServer_SetupMiddleware(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/checker", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Seen", middleware.GetReqID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	s := NewServer(ServerConfig{Address: ":0"}, router, zerolog.Nop())
	s.SetupMiddleware(Middleware{
		CORS:     mark("cors"),
		Timeout:  mark("timeout"),
		Logger:   mark("logger"),
		Recovery: mark("recovery"),
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checker/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Seen"))
	assert.Equal(t, []string{"cors", "timeout", "logger", "recovery"}, order)
}
