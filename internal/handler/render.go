package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dukerupert/cloudbyte/internal/auth"
	"github.com/dukerupert/cloudbyte/internal/flash"
	"github.com/dukerupert/cloudbyte/internal/model"
)

// Pages lists every page template; each is parsed together with layout.html
// so their "content" blocks do not collide.
var Pages = []string{
	"index.html",
	"pricing.html",
	"auth.html",
	"checkout.html",
	"dashboard.html",
	"terminal.html",
}

var funcs = template.FuncMap{
	"inr":       model.FormatINR,
	"humanTime": humanize.Time,
	"date": func(t time.Time) string {
		return t.Format("2 Jan 2006")
	},
	"percent": func(f float64) string {
		return strconv.FormatFloat(f, 'f', 0, 64)
	},
}

// Renderer executes page templates inside the shared layout and fills in the
// navigation shell: session state, flash toast, base URL and year.
type Renderer struct {
	templates map[string]*template.Template
	baseURL   string
	logger    *slog.Logger
}

// NewRenderer parses the pages from fsys, which must contain a templates/
// directory.
func NewRenderer(fsys fs.FS, baseURL string, logger *slog.Logger) (*Renderer, error) {
	templates := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return &Renderer{
		templates: templates,
		baseURL:   baseURL,
		logger:    logger,
	}, nil
}

// Render writes page name with the given status. data may be nil.
func (rr *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	tmpl, ok := rr.templates[name]
	if !ok {
		rr.logger.Error("template not found", "name", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = map[string]any{}
	}
	data["BaseURL"] = rr.baseURL
	data["Year"] = time.Now().Year()
	data["Path"] = r.URL.Path
	if _, exists := data["ActiveNav"]; !exists {
		data["ActiveNav"] = ""
	}
	ac, authenticated := auth.FromContext(r.Context())
	data["IsAuthenticated"] = authenticated
	data["AccountEmail"] = ac.Email

	data["Flash"] = flash.Pop(w, r)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		rr.logger.Error("template render", "name", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
