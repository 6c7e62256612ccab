package render

import (
	"html/template"

	"mediamap/internal/model"
)

type mediaView struct {
	URL    template.URL
	Name   string
	SizeMB float64
	Video  bool
	MIME   string
}

type popupView struct {
	Title       string
	Description string
	Media       *mediaView
	Missing     string
	Meta        []model.Field
}

var popupTmpl = template.Must(template.New("popup").Parse(`<div class="mm-popup">
<h3 class="mm-popup-title">{{.Title}}</h3>
{{- with .Media}}{{if .Video}}
<video controls preload="metadata" class="mm-video" onerror="this.style.display='none';this.nextElementSibling.style.display='block';">
<source src="{{.URL}}" type="{{.MIME}}">
Your browser does not support this video format.
</video>
<div class="mm-video-fallback" style="display:none">Video preview not available. Use the button below to open the video in a new tab.</div>
<p class="mm-file">&#127909; {{.Name}} ({{printf "%.1f" .SizeMB}} MB)</p>
<p><a class="mm-open" href="{{.URL}}" target="_blank" rel="noopener">&#9654; Open Video in New Tab</a></p>
{{- else}}
<img class="mm-image" src="{{.URL}}" alt="{{.Name}}" loading="lazy">
<p class="mm-file">&#128247; {{.Name}} ({{printf "%.1f" .SizeMB}} MB)</p>
{{- end}}{{end}}
{{- if .Missing}}
<p class="mm-missing">No preview available: {{.Missing}} was not found.</p>
{{- end}}
{{- if .Description}}
<p class="mm-desc">{{.Description}}</p>
{{- end}}
{{- if .Meta}}
<div class="mm-meta">{{range .Meta}}<b>{{.Name}}:</b> {{.Value}}<br>{{end}}</div>
{{- end}}
</div>`))
