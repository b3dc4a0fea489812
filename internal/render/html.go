package render

import (
	"embed"
	"html/template"
	"io"

	"github.com/fakhrymubarak/weather-widget/internal/animation"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/presenter"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data behind one widget page. At most one of View, Error is set.
type Page struct {
	City  string
	Units model.UnitSystem
	View  *View
	Error string
	Alert string
}

func (Page) ErrorBackground() string  { return presenter.NeutralBackground }
func (Page) ErrorColor() string       { return presenter.ErrorTheme.TextColor }
func (Page) EnterCityMessage() string { return MsgEnterCity }
func (Page) LoadingMessage() string   { return MsgLoading }
func (Page) CounterMillis() int64     { return animation.CounterDuration.Milliseconds() }

type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		// gradients and shadows come from fixed tables, never from user input
		"css": func(s string) template.CSS { return template.CSS(s) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

func (r *HTMLRenderer) Render(w io.Writer, page Page) error {
	return r.tmpl.ExecuteTemplate(w, "index.html", page)
}
