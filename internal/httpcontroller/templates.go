package httpcontroller

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

// PageTitle is the title of the upload page.
const PageTitle = "Plant Disease Analysis System"

//go:embed templates/*.html
var templateFS embed.FS

// PageData feeds the index template.
type PageData struct {
	Title    string
	FileName string
	Preview  template.URL
	Result   *PredictResponse
}

// TemplateRenderer is a custom html/template renderer for Echo framework.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded templates.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"percent": func(v float64) string { return fmt.Sprintf("%.2f", v*100) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

// Render renders a template document.
func (t *TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}
