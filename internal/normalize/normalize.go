// Package normalize turns the raw media and event tables into one ordered
// sequence of records sharing a single schema.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"mediamap/internal/config"
	"mediamap/internal/logging"
	"mediamap/internal/model"
)

// DefaultTitle is used when a row has no title.
const DefaultTitle = "Untitled"

// Result is the merged output of one normalization pass.
type Result struct {
	Records []model.Record
	// Raw is the number of data rows read across both sources.
	Raw int
	// Dropped counts rows without valid coordinates.
	Dropped         int
	DroppedBySource map[model.SourceOrigin]int
}

// Normalizer maps source columns onto model.Record.
type Normalizer struct {
	Columns      config.ColumnConfig
	EventColumns config.EventColumnConfig
	// Location is applied to timestamps without a zone. Defaults to UTC.
	Location *time.Location
}

// New returns a Normalizer for the given column mappings.
func New(cols config.ColumnConfig, eventCols config.EventColumnConfig) *Normalizer {
	return &Normalizer{Columns: cols, EventColumns: eventCols, Location: time.UTC}
}

// Normalize converts media then events and concatenates them. IDs follow the
// merge order. Either table may be nil.
func (n *Normalizer) Normalize(media, events *model.Table) Result {
	res := Result{DroppedBySource: map[model.SourceOrigin]int{}}

	add := func(origin model.SourceOrigin, t *model.Table, conv func(*model.Table, []string) (model.Record, bool)) {
		if t == nil {
			return
		}
		for _, row := range t.Rows {
			res.Raw++
			rec, ok := conv(t, row)
			if !ok {
				res.Dropped++
				res.DroppedBySource[origin]++
				continue
			}
			rec.ID = len(res.Records)
			res.Records = append(res.Records, rec)
		}
		logging.Debug("normalize", "source_normalized", logging.Fields{
			"source":  t.Name,
			"origin":  string(origin),
			"rows":    t.Len(),
			"dropped": res.DroppedBySource[origin],
		})
	}

	add(model.OriginMedia, media, n.mediaRecord)
	add(model.OriginEvent, events, n.eventRecord)

	if res.Dropped > 0 {
		logging.Warn("normalize", "rows_dropped", logging.Fields{
			"dropped": res.Dropped,
			"media":   res.DroppedBySource[model.OriginMedia],
			"event":   res.DroppedBySource[model.OriginEvent],
			"reason":  "missing or invalid coordinates",
		})
	}
	return res
}

func (n *Normalizer) mediaRecord(t *model.Table, row []string) (model.Record, bool) {
	c := n.Columns
	coords, ok := ParseCoordinates(cell(t, row, c.Latitude), cell(t, row, c.Longitude))
	if !ok {
		return model.Record{}, false
	}

	raw := cell(t, row, c.DateTime)
	if raw == "" {
		raw = strings.TrimSpace(cell(t, row, c.Date) + " " + cell(t, row, c.Time))
	}
	ts, _ := ParseTimestamp(raw, n.loc())

	rec := model.Record{
		Coordinates:  coords,
		Title:        orDefault(cell(t, row, c.Title), DefaultTitle),
		Description:  cell(t, row, c.Description),
		MediaPath:    cell(t, row, c.Media),
		Timestamp:    ts,
		RawTimestamp: raw,
		Origin:       model.OriginMedia,
		Color:        strings.ToLower(cell(t, row, c.Color)),
		Icon:         strings.ToLower(cell(t, row, c.Icon)),
	}
	rec.Extra = extra(t, row, c.Latitude, c.Longitude, c.Title, c.Description,
		c.Media, c.Icon, c.Color, c.DateTime, c.Date, c.Time)
	return rec, true
}

func (n *Normalizer) eventRecord(t *model.Table, row []string) (model.Record, bool) {
	c := n.EventColumns
	coords, ok := ParseCoordinates(cell(t, row, c.Latitude), cell(t, row, c.Longitude))
	if !ok {
		return model.Record{}, false
	}

	raw := cell(t, row, c.DateTime)
	ts, _ := ParseTimestamp(raw, n.loc())

	rec := model.Record{
		Coordinates:    coords,
		Title:          orDefault(cell(t, row, c.Title), DefaultTitle),
		Description:    cell(t, row, c.Description),
		Timestamp:      ts,
		RawTimestamp:   raw,
		AccuracyMeters: ParseAccuracy(cell(t, row, c.Accuracy)),
		Origin:         model.OriginEvent,
	}
	rec.Extra = extra(t, row, c.Latitude, c.Longitude, c.DateTime, c.Title, c.Description, c.Accuracy)
	return rec, true
}

func (n *Normalizer) loc() *time.Location {
	if n.Location == nil {
		return time.UTC
	}
	return n.Location
}

// ParseCoordinates parses a latitude/longitude pair. Empty, non-numeric,
// non-finite and out-of-range values are rejected.
func ParseCoordinates(lat, lon string) (model.Coordinates, bool) {
	la, ok := parseFloat(lat)
	if !ok || la < -90 || la > 90 {
		return model.Coordinates{}, false
	}
	lo, ok := parseFloat(lon)
	if !ok || lo < -180 || lo > 180 {
		return model.Coordinates{}, false
	}
	return model.Coordinates{Lat: la, Lon: lo}, true
}

// ParseAccuracy parses an accuracy radius in meters. Anything unusable is 0.
func ParseAccuracy(s string) float64 {
	v, ok := parseFloat(s)
	if !ok || v < 0 {
		return 0
	}
	return v
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"2006-01-02",
}

// ParseTimestamp tries every accepted layout in order. Values without a zone
// are read in loc; values with one keep their own wall clock.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if IsEmpty(s) {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// IsEmpty reports whether a cell holds one of the placeholders spreadsheet
// exports use for a missing value.
func IsEmpty(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

func parseFloat(s string) (float64, bool) {
	if IsEmpty(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func cell(t *model.Table, row []string, column string) string {
	v := t.Cell(row, t.Index(column))
	if IsEmpty(v) {
		return ""
	}
	return v
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// extra collects the non-empty cells of every column not named in mapped.
func extra(t *model.Table, row []string, mapped ...string) []model.Field {
	skip := make(map[int]bool, len(mapped))
	for _, m := range mapped {
		if i := t.Index(m); i >= 0 {
			skip[i] = true
		}
	}
	var out []model.Field
	for i, h := range t.Header {
		if skip[i] || strings.TrimSpace(h) == "" {
			continue
		}
		v := t.Cell(row, i)
		if IsEmpty(v) {
			continue
		}
		out = append(out, model.Field{Name: strings.TrimSpace(h), Value: v})
	}
	return out
}
