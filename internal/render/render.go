// Package render builds the per-record map payload: marker placement, style,
// popup HTML and the optional accuracy circle.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"regexp"
	"strings"

	"mediamap/internal/category"
	"mediamap/internal/logging"
	"mediamap/internal/model"
	"mediamap/internal/storage"
)

// Circle is an accuracy overlay centred on its marker.
type Circle struct {
	Radius  float64 `json:"radius"`
	Color   string  `json:"color"`
	Tooltip string  `json:"tooltip"`
}

// Marker is everything the document needs to place one record on the map.
type Marker struct {
	ID       int               `json:"id"`
	Position model.Coordinates `json:"position"`
	Category model.Category    `json:"category"`
	Tooltip  string            `json:"tooltip"`
	Color    string            `json:"color"`
	Icon     string            `json:"icon"`
	Popup    string            `json:"popup"`
	Circle   *Circle           `json:"circle,omitempty"`
}

// Renderer renders markers and keeps the run totals.
type Renderer struct {
	store storage.Storage
	stats model.Stats
}

// New returns a Renderer resolving media through store. A nil store renders
// every media reference as missing.
func New(store storage.Storage) *Renderer {
	return &Renderer{store: store}
}

// Stats returns the totals accumulated so far.
func (r *Renderer) Stats() model.Stats {
	return r.stats
}

// Render builds the marker of one categorized record.
func (r *Renderer) Render(ctx context.Context, rec model.Record) (Marker, error) {
	m, delta, err := r.render(ctx, rec)
	if err != nil {
		return Marker{}, err
	}
	r.add(delta)
	return m, nil
}

// RenderAll renders every record. A record that fails, or panics, is skipped
// with a warning and counted in Stats.Skipped.
func (r *Renderer) RenderAll(ctx context.Context, recs []model.Record) ([]Marker, error) {
	out := make([]Marker, 0, len(recs))
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := r.safeRender(ctx, rec)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			r.stats.Skipped++
			logging.Warn("render", "record_skipped", logging.Fields{
				"id":    rec.ID,
				"title": rec.Title,
				"error": err.Error(),
			})
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Renderer) safeRender(ctx context.Context, rec model.Record) (m Marker, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render record %d: panic: %v", rec.ID, p)
		}
	}()
	return r.Render(ctx, rec)
}

func (r *Renderer) add(d model.Stats) {
	r.stats.Total += d.Total
	r.stats.WithMedia += d.WithMedia
	r.stats.Images += d.Images
	r.stats.Videos += d.Videos
	r.stats.NoMedia += d.NoMedia
	r.stats.MissingMedia += d.MissingMedia
	r.stats.EventA += d.EventA
	r.stats.EventB += d.EventB
}

func (r *Renderer) render(ctx context.Context, rec model.Record) (Marker, model.Stats, error) {
	var d model.Stats
	if !rec.Category.Valid() {
		return Marker{}, d, fmt.Errorf("record %d has no category", rec.ID)
	}

	view := popupView{
		Title:       rec.Title,
		Description: CleanDescription(rec.Description),
		Meta:        metadata(rec),
	}

	switch rec.Category {
	case model.CategoryEventA:
		d.EventA++
	case model.CategoryEventB:
		d.EventB++
	case model.CategoryImage:
		d.Images++
	case model.CategoryVideo:
		d.Videos++
	}

	if rec.Origin != model.OriginEvent {
		switch {
		case !rec.HasMedia():
			d.NoMedia++
		default:
			media, err := r.media(ctx, rec)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				d.MissingMedia++
				view.Missing = filepath.Base(storage.NormalizeKey(rec.MediaPath))
			case err != nil:
				return Marker{}, d, err
			default:
				d.WithMedia++
				view.Media = media
			}
		}
	}

	var buf bytes.Buffer
	if err := popupTmpl.Execute(&buf, view); err != nil {
		return Marker{}, d, fmt.Errorf("render popup for record %d: %w", rec.ID, err)
	}

	style := category.StyleOf(rec)
	m := Marker{
		ID:       rec.ID,
		Position: rec.Coordinates,
		Category: rec.Category,
		Tooltip:  rec.Title,
		Color:    style.Color,
		Icon:     style.Icon,
		Popup:    buf.String(),
	}
	if rec.AccuracyMeters > 0 {
		m.Circle = &Circle{
			Radius:  rec.AccuracyMeters,
			Color:   style.Hex,
			Tooltip: fmt.Sprintf("Accuracy: %gm", rec.AccuracyMeters),
		}
	}
	d.Total++
	return m, d, nil
}

func (r *Renderer) media(ctx context.Context, rec model.Record) (*mediaView, error) {
	if r.store == nil {
		return nil, storage.ErrNotFound
	}
	info, err := r.store.Stat(ctx, rec.MediaPath)
	if err != nil {
		return nil, err
	}
	u, err := r.store.URL(ctx, rec.MediaPath)
	if err != nil {
		return nil, fmt.Errorf("media url for record %d: %w", rec.ID, err)
	}
	name := info.Name
	if name == "" {
		name = filepath.Base(storage.NormalizeKey(rec.MediaPath))
	}
	v := &mediaView{
		URL:    template.URL(u),
		Name:   name,
		SizeMB: info.SizeMB(),
		Video:  rec.Category == model.CategoryVideo,
	}
	if v.Video {
		v.MIME = VideoMIME(rec.MediaPath)
	}
	return v, nil
}

var modifiedRe = regexp.MustCompile(`\s*\|\s*Modified:\s*[\d\-:\s]+`)

// CleanDescription removes "| Modified: <timestamp>" annotations.
func CleanDescription(s string) string {
	return strings.TrimSpace(modifiedRe.ReplaceAllString(s, ""))
}

var videoMIME = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".mkv":  "video/x-matroska",
}

// VideoMIME returns the source type of a video file, video/<ext> when the
// extension is not in the table.
func VideoMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(storage.NormalizeKey(path)))
	if t, ok := videoMIME[ext]; ok {
		return t
	}
	return "video/" + strings.TrimPrefix(ext, ".")
}

func metadata(rec model.Record) []model.Field {
	var out []model.Field
	if rec.RawTimestamp != "" {
		out = append(out, model.Field{Name: "Date/Time", Value: rec.RawTimestamp})
	}
	if rec.AccuracyMeters > 0 {
		out = append(out, model.Field{Name: "Accuracy", Value: fmt.Sprintf("%g m", rec.AccuracyMeters)})
	}
	return append(out, rec.Extra...)
}
