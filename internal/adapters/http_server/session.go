package httpserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"staybook/internal/app"
)

const (
	sessionName = "staybook"
	sidKey      = "sid"
)

type sessionCtxKey struct{}

// Sessions keeps a per-browser id in a signed cookie. Everything else about
// the browser lives server-side keyed by that id.
type Sessions struct {
	store sessions.Store
}

func NewSessions(secret []byte, secure bool) *Sessions {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: cs}
}

// Middleware assigns a browser id on first visit and exposes it as *app.Session.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a cookie that fails to decode still yields a fresh session
		sess, _ := s.store.Get(r, sessionName)
		id, _ := sess.Values[sidKey].(string)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			sess.Values[sidKey] = id
			if err := sess.Save(r, w); err != nil {
				log.Error().Err(err).Msg("session save failed")
			}
		}
		ctx := context.WithValue(r.Context(), sessionCtxKey{}, &app.Session{ID: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AddFlash queues a one-shot message for the next page render.
func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, msg string) {
	sess, _ := s.store.Get(r, sessionName)
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		log.Error().Err(err).Msg("session save failed")
	}
}

// Flashes pops queued messages.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []string {
	sess, _ := s.store.Get(r, sessionName)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		log.Error().Err(err).Msg("session save failed")
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if m, ok := f.(string); ok {
			out = append(out, m)
		}
	}
	return out
}

func sessionFrom(r *http.Request) *app.Session {
	if s, ok := r.Context().Value(sessionCtxKey{}).(*app.Session); ok {
		return s
	}
	return &app.Session{}
}
