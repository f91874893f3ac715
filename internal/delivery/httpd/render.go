package httpd

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageHome    = "home.html"
	pageAbout   = "about.html"
	pageChecker = "checker.html"
)

// pageData общий для всех страниц.
type pageData struct {
	Title        string
	Active       string
	Refresh      int
	Notices      []models.Notice
	Session      *models.SessionView
	Levels       []models.PlagiarismLevel
	MaxFileSize  string
	AllowedTypes string
}

type uploadField struct {
	Name  string
	Label string
	File  *models.FileInfo
	Error string
}

type renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"percent": models.FormatPercentage,
	"deref": func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	},
	"comma": func(n int) string {
		return humanize.Comma(int64(n))
	},
	"uploadField": func(v *models.SessionView, name, label string) uploadField {
		return uploadField{
			Name:  name,
			Label: label,
			File:  v.File(name),
			Error: v.FieldError(name),
		}
	},
}

func mustLoadTemplates() *renderer {
	r := &renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{pageHome, pageAbout, pageChecker} {
		// каждая страница получает свой набор, чтобы "content" не конфликтовал
		t := template.Must(template.New(page).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+page,
		))
		r.pages[page] = t
	}
	return r
}

func (h *Handler) render(w http.ResponseWriter, page string, data *pageData) {
	t, ok := h.pages.pages[page]
	if !ok {
		h.logger.Error().Str("page", page).Msg("Unknown page template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if data.Levels == nil {
		data.Levels = models.AllLevels()
	}
	data.MaxFileSize = humanize.IBytes(uint64(h.config.MaxFileSize))
	data.AllowedTypes = strings.Join(h.config.AllowedTypes, ", ")

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error().Err(err).Str("page", page).Msg("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error().Err(err).Str("page", page).Msg("Failed to write page")
	}
}
