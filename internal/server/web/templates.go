package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Each page is parsed together with the layout; the page file supplies the
// "content" block the layout invokes.
var pages = map[string]*template.Template{
	"index":    mustPage("index.html"),
	"register": mustPage("register.html"),
	"login":    mustPage("login.html"),
	"admin":    mustPage("admin.html"),
	"forgot":   mustPage("forgot.html"),
	"reset":    mustPage("reset.html"),
}

func mustPage(name string) *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
}

func (h *Handler) render(w http.ResponseWriter, status int, page string, data *pageData) {
	tmpl, ok := pages[page]
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error(context.Background(), "template render failed", "page", page, "error", err.Error())
	}
}
