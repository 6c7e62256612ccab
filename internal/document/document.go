// Package document assembles the single self-contained HTML file: Leaflet map,
// chronological sidebar and the embedded filter engine with its data.
package document

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/google/uuid"

	"mediamap/internal/category"
	"mediamap/internal/filter"
	"mediamap/internal/model"
	"mediamap/internal/render"
	"mediamap/internal/timeline"
)

//go:embed templates/map.html.tmpl assets/sidebar.css assets/map.js
var files embed.FS

// DefaultZoom is the initial map zoom.
const DefaultZoom = 12

// Labels are the user-facing names of the event categories and the page.
type Labels struct {
	Title  string `json:"title"`
	EventA string `json:"eventA"`
	EventB string `json:"eventB"`
}

// Input is what the pipeline hands to the assembler.
type Input struct {
	Records []model.Record
	Markers []render.Marker
	Tree    timeline.Tree
	Stats   model.Stats
	Labels  Labels
}

// Payload is serialized into the page for map.js and filter.js.
type Payload struct {
	Center  model.Coordinates                 `json:"center"`
	Zoom    int                               `json:"zoom"`
	Markers []render.Marker                   `json:"markers"`
	Refs    []filter.Ref                      `json:"refs"`
	Tree    filter.TreeIndex                  `json:"tree"`
	Styles  map[model.Category]category.Style `json:"styles"`
	Labels  Labels                            `json:"labels"`
}

// Page is the template data.
type Page struct {
	Title       string
	RunID       string
	GeneratedAt string
	Tree        timeline.Tree
	Stats       model.Stats
	Labels      Labels
	Payload     Payload
	CSS         template.CSS
	FilterJS    template.JS
	MapJS       template.JS
}

// Assembler renders pages from the embedded template.
type Assembler struct {
	tmpl  *template.Template
	css   string
	mapJS string
	now   func() time.Time
	runID func() string
}

// New parses the embedded template and assets.
func New() (*Assembler, error) {
	tmpl, err := template.New("map.html.tmpl").Funcs(template.FuncMap{
		"categoryLabel": func(c model.Category, l Labels) string {
			return CategoryLabel(c, l)
		},
	}).ParseFS(files, "templates/map.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse document template: %w", err)
	}
	css, err := files.ReadFile("assets/sidebar.css")
	if err != nil {
		return nil, err
	}
	js, err := files.ReadFile("assets/map.js")
	if err != nil {
		return nil, err
	}
	return &Assembler{
		tmpl:  tmpl,
		css:   string(css),
		mapJS: string(js),
		now:   time.Now,
		runID: uuid.NewString,
	}, nil
}

// Build derives the page data from the pipeline output.
func (a *Assembler) Build(in Input) Page {
	styles := make(map[model.Category]category.Style, len(model.Categories))
	for _, c := range model.Categories {
		styles[c] = category.DefaultStyle(c)
	}
	markers := in.Markers
	if markers == nil {
		markers = []render.Marker{}
	}
	return Page{
		Title:       in.Labels.Title,
		RunID:       a.runID(),
		GeneratedAt: a.now().Format("2006-01-02 15:04:05"),
		Tree:        in.Tree,
		Stats:       in.Stats,
		Labels:      in.Labels,
		Payload: Payload{
			Center:  Center(in.Records),
			Zoom:    DefaultZoom,
			Markers: markers,
			Refs:    filter.RefsFrom(in.Records),
			Tree:    filter.IndexTree(in.Tree),
			Styles:  styles,
			Labels:  in.Labels,
		},
		CSS:      template.CSS(a.css),
		FilterJS: template.JS(filter.Script),
		MapJS:    template.JS(a.mapJS),
	}
}

// Render writes the document for p to w.
func (a *Assembler) Render(w io.Writer, p Page) error {
	if err := a.tmpl.Execute(w, p); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	return nil
}

// Center is the mean coordinate of recs, or the zero point when empty.
func Center(recs []model.Record) model.Coordinates {
	if len(recs) == 0 {
		return model.Coordinates{}
	}
	var lat, lon float64
	for _, r := range recs {
		lat += r.Coordinates.Lat
		lon += r.Coordinates.Lon
	}
	n := float64(len(recs))
	return model.Coordinates{Lat: lat / n, Lon: lon / n}
}

// CategoryLabel is the sidebar name of a category.
func CategoryLabel(c model.Category, l Labels) string {
	switch c {
	case model.CategoryImage:
		return "Image"
	case model.CategoryVideo:
		return "Video"
	case model.CategoryEventA:
		return l.EventA
	case model.CategoryEventB:
		return l.EventB
	}
	return string(c)
}
