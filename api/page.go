package api

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"promptly/domain"
	"promptly/library"
)

const pageTemplate = "index.html"

//go:embed templates/*.html
var templateFS embed.FS

type pageRenderer struct {
	templates *template.Template
}

func newPageRenderer() *pageRenderer {
	funcs := template.FuncMap{
		"categoryLabel": categoryLabel,
	}
	return &pageRenderer{
		templates: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
	}
}

func (r *pageRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

type pageData struct {
	library.View
	Heading string
	Count   int
}

func newPageData(v library.View) pageData {
	return pageData{View: v, Heading: "Prompt Library", Count: len(v.Prompts)}
}

func categoryLabel(c string) string {
	if c == domain.AllCategories {
		return "All Categories"
	}
	return c
}
