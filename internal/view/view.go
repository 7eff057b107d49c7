// Package view renders the HTML pages.  Every page template is parsed
// together with layout.html, which defines the shared "header" and
// "footer" blocks.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer implements echo.Renderer.  Templates are looked up by page
// name without extension, e.g. "movie_info".
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"eq_pos": func(a, b string) bool { return a != "" && a == b },
}

// New parses every page template once.
func New() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New(path.Base(f)).Funcs(funcs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Names lists the pages the renderer knows.
func (r *Renderer) Names() []string {
	out := make([]string, 0, len(r.pages))
	for n := range r.pages {
		out = append(out, n)
	}
	return out
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown template %q", name)
	}
	return t.ExecuteTemplate(w, name+".html", data)
}
