package httpserver

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"staybook/internal/app"
)

//go:embed templates/*.html
var templateFS embed.FS

type homePage struct {
	View    app.HomeView
	Flashes []string
	Return  string
}

// Renderer owns the parsed page templates.
type Renderer struct{ t *template.Template }

func NewRenderer() (*Renderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"price":  func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
		"rating": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{t: t}, nil
}

// home renders into a buffer first so a template error never leaves half a page.
func (rd *Renderer) home(w http.ResponseWriter, status int, p homePage) {
	var buf bytes.Buffer
	if err := rd.t.ExecuteTemplate(&buf, "index", p); err != nil {
		log.Error().Err(err).Msg("render index failed")
		writeProblem(w, http.StatusInternalServerError, "Render Error", "page could not be rendered")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("failed to write page body")
	}
}
