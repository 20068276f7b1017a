package card

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// ExportElementID is the id of the node the exporter captures.
const ExportElementID = "card-export"

// Options controls how a single card is drawn.
type Options struct {
	Layout     Layout
	Exportable bool
}

// Notice is a user-visible message shown above a view.
type Notice struct {
	Level   string // info, success, warning, error
	Message string
}

// GalleryPage feeds the gallery view.
type GalleryPage struct {
	State   string // loading, ready, empty, failed
	Cards   []View
	Notices []Notice
	Layout  Layout
}

// GeneratorPage feeds the generator view. Card is nil until there is
// something to preview.
type GeneratorPage struct {
	Name    string
	Role    string
	Bio     string
	Card    *View
	Options Options
	Notices []Notice
}

type cardData struct {
	View
	Options
	ElementID string
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("cards").Funcs(template.FuncMap{
		"photo": photoURL,
		"card": func(v View, o Options) cardData {
			return cardData{View: v, Options: withDefaults(o)}
		},
		"readonly": func(l Layout) Options { return Options{Layout: l} },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse card templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderDocument writes a standalone page holding one card with id
// ExportElementID.
func (r *Renderer) RenderDocument(w io.Writer, v View, opts Options) error {
	return r.execute(w, "document.html", cardData{View: v, Options: withDefaults(opts), ElementID: ExportElementID})
}

// Document is RenderDocument into a string.
func (r *Renderer) Document(v View, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderDocument(&buf, v, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) RenderGallery(w io.Writer, page GalleryPage) error {
	if page.Layout == "" {
		page.Layout = LayoutBadge
	}
	return r.execute(w, "gallery.html", page)
}

func (r *Renderer) RenderGenerator(w io.Writer, page GeneratorPage) error {
	page.Options = withDefaults(page.Options)
	return r.execute(w, "generator.html", page)
}

func (r *Renderer) execute(w io.Writer, name string, data interface{}) error {
	// render to a buffer so a template error never leaves half a page
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func withDefaults(o Options) Options {
	if o.Layout == "" {
		o.Layout = LayoutBadge
	}
	return o
}

// photoURL lets staged image data URLs through html/template's URL filter.
func photoURL(src string) interface{} {
	if strings.HasPrefix(src, "data:image/") {
		return template.URL(src)
	}
	return src
}
