// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"staybook/internal/app"
	"staybook/internal/domain"
)

type Handlers struct {
	C        *app.Controller
	Sessions *Sessions
	View     *Renderer
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Group(func(r chi.Router) {
		r.Use(NoStore)
		r.Use(h.Sessions.Middleware)
		r.Get("/", h.index)
		r.Get("/search", h.search)
		r.Post("/favorites/{id}/toggle", h.toggleFavorite)
		r.Post("/favorites/{id}/delete", h.deleteFavorite)
		r.Post("/hotels/{id}/book", h.bookHotel)
		r.Get("/api/favorites", h.listFavorites)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// wantsJSON is true for script callers that update a single button in place.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// returnTo accepts only local paths to avoid open redirects. url.Parse
// rejects control characters, which browsers would otherwise strip.
func returnTo(r *http.Request) string {
	p := r.FormValue("return")
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return "/"
	}
	return p
}

func hotelID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

// statusFor maps a failed mutation to the status a JSON caller sees.
func statusFor(err error) int {
	var se *domain.StatusError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &se), errors.Is(err, domain.ErrMalformed),
		errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		return http.StatusBadGateway
	}
	return http.StatusServiceUnavailable
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, v app.HomeView) {
	h.View.home(w, http.StatusOK, homePage{
		View:    v,
		Flashes: h.Sessions.Flashes(w, r),
		Return:  r.URL.RequestURI(),
	})
}

func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.C.Initialize(r.Context(), sessionFrom(r)))
}

// search ignores the date and guest fields; the backend has no availability filter.
func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.C.Search(r.Context(), sessionFrom(r), r.URL.Query().Get("location")))
}

func (h *Handlers) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := hotelID(w, r)
	if !ok {
		return
	}
	res, err := h.C.ToggleFavorite(r.Context(), sessionFrom(r), id)
	if err != nil {
		log.Error().Err(err).Int64("hotel_id", id).Msg("toggle favorite failed")
		if wantsJSON(r) {
			writeProblem(w, statusFor(err), "Favorite Not Updated", "favorites could not be updated")
			return
		}
		h.Sessions.AddFlash(w, r, "Could not update favorites. Please try again.")
		http.Redirect(w, r, returnTo(r), http.StatusSeeOther)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	http.Redirect(w, r, returnTo(r), http.StatusSeeOther)
}

func (h *Handlers) deleteFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := hotelID(w, r)
	if !ok {
		return
	}
	fv, err := h.C.DeleteFavorite(r.Context(), sessionFrom(r), id)
	if err != nil {
		log.Error().Err(err).Int64("hotel_id", id).Msg("delete favorite failed")
		if wantsJSON(r) {
			writeProblem(w, statusFor(err), "Favorite Not Removed", "favorites could not be updated")
			return
		}
		h.Sessions.AddFlash(w, r, "Could not remove favorite. Please try again.")
		http.Redirect(w, r, returnTo(r), http.StatusSeeOther)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, fv)
		return
	}
	http.Redirect(w, r, returnTo(r), http.StatusSeeOther)
}

func (h *Handlers) bookHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := hotelID(w, r)
	if !ok {
		return
	}
	n := h.C.BookHotel(r.Context(), sessionFrom(r), id)
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, n)
		return
	}
	h.Sessions.AddFlash(w, r, n.Message)
	http.Redirect(w, r, returnTo(r), http.StatusSeeOther)
}

func (h *Handlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.C.Favorites(r.Context(), sessionFrom(r)))
}
