package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Server struct{ mux *chi.Mux }

// New builds the router with the shared middleware chain. Routes are added
// afterwards by MountHandlers and Mount; chi panics on Use after a route.
func New(l zerolog.Logger, requestTimeout time.Duration) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	m := chi.NewRouter()
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(AccessLog(l))
	m.Use(chimw.Recoverer)
	m.Use(chimw.Timeout(requestTimeout))
	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
