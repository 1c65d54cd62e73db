package server

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deep-rent/components/component"
)

// Page is a component that serves a route. Pages mount themselves on the
// router while they are constructed.
type Page interface {
	// Path returns the route pattern of the page.
	Path() string
}

var layout = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Heading}}</h1>
{{range .Lines}}<p>{{.}}</p>
{{end}}{{if .Visits}}<p>Visits: {{.Visits}}</p>
{{end}}</body>
</html>
`))

type view struct {
	Title   string
	Heading string
	Lines   []string
	Visits  int64
}

func render(w http.ResponseWriter, logger *slog.Logger, v view) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := layout.Execute(w, v); err != nil {
		logger.Error("Failed to render page", slog.String("title", v.Title), slog.Any("error", err))
	}
}

// HomePage greets visitors and counts their visits.
type HomePage struct {
	counter VisitCounter
	logger  *slog.Logger
}

// NewHomePage creates a HomePage and mounts it on r.
func NewHomePage(r chi.Router, counter VisitCounter, logger *slog.Logger) *HomePage {
	p := &HomePage{counter: counter, logger: logger}
	r.Get(p.Path(), p.ServeHTTP)
	return p
}

func (p *HomePage) Path() string { return "/" }

func (p *HomePage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n, err := p.counter.Increment(r.Context(), p.Path())
	if err != nil {
		p.logger.Error("Failed to count visit", slog.String("page", p.Path()), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	render(w, p.logger, view{
		Title:   "Home",
		Heading: "Component Application",
		Lines:   []string{"Every part of this application is a component."},
		Visits:  n,
	})
}

// AboutPage describes the application. It shows the visit count of the home
// page if a VisitCounter is available.
type AboutPage struct {
	counter component.Optional[VisitCounter]
	logger  *slog.Logger
}

// NewAboutPage creates an AboutPage and mounts it on r.
func NewAboutPage(
	r chi.Router,
	counter component.Optional[VisitCounter],
	logger *slog.Logger,
) *AboutPage {
	p := &AboutPage{counter: counter, logger: logger}
	r.Get(p.Path(), p.ServeHTTP)
	return p
}

func (p *AboutPage) Path() string { return "/about" }

func (p *AboutPage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v := view{
		Title:   "About",
		Heading: "About Component Application",
		Lines: []string{
			"This application shows how to use components to compose an application.",
			"You rarely need a dedicated application type, because the container composes it all.",
		},
	}
	if counter, ok := p.counter.Get(); ok {
		n, err := counter.Count(r.Context(), "/")
		if err != nil {
			p.logger.Warn("Failed to read visit count", slog.Any("error", err))
		}
		v.Visits = n
	}
	render(w, p.logger, v)
}

// VisitsPage reports the visit count of a page as JSON. The page is selected
// with the "page" query parameter and defaults to the home page.
type VisitsPage struct {
	counter VisitCounter
	logger  *slog.Logger
}

// NewVisitsPage creates a VisitsPage and mounts it on r.
func NewVisitsPage(r chi.Router, counter VisitCounter, logger *slog.Logger) *VisitsPage {
	p := &VisitsPage{counter: counter, logger: logger}
	r.Get(p.Path(), p.ServeHTTP)
	return p
}

func (p *VisitsPage) Path() string { return "/visits" }

// Visits is the response body of the visits endpoint.
type Visits struct {
	Page   string `json:"page"`
	Visits int64  `json:"visits"`
}

func (p *VisitsPage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page == "" {
		page = "/"
	}
	n, err := p.counter.Count(r.Context(), page)
	if err != nil {
		p.logger.Error("Failed to read visit count", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(Visits{Page: page, Visits: n}); err != nil {
		p.logger.Warn("Failed to write response", slog.Any("error", err))
	}
}
