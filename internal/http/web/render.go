package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	echo "github.com/labstack/echo/v4"

	"github.com/jmehdipour/customer-portal/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"login",
	"register",
	"customers_index",
	"customers_new",
	"customers_edit",
}

// Renderer is the echo.Renderer over the embedded page templates. Every page
// is parsed together with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() *Renderer {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		pages[name] = template.Must(template.ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html"))
	}
	return &Renderer{pages: pages}
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// pageData is the single view model shared by all pages.
type pageData struct {
	Title     string
	Error     string
	LoggedIn  bool
	Customers []model.Customer
	Customer  *model.Customer
	Values    map[string]string
}
