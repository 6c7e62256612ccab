package model

import "time"

// Category is the display classification of a record. It drives styling,
// cluster membership and filtering.
type Category string

const (
	CategoryImage  Category = "image"
	CategoryVideo  Category = "video"
	CategoryEventA Category = "event_a"
	CategoryEventB Category = "event_b"
)

// Categories lists every category in rendering order.
var Categories = []Category{CategoryImage, CategoryVideo, CategoryEventA, CategoryEventB}

// IsEvent reports whether c belongs to an event source.
func (c Category) IsEvent() bool {
	return c == CategoryEventA || c == CategoryEventB
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// SourceOrigin identifies which input table produced a record.
type SourceOrigin string

const (
	OriginMedia SourceOrigin = "media"
	OriginEvent SourceOrigin = "event"
)

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Field is a source column that has no dedicated Record attribute.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is one normalized location entry flowing through the pipeline.
// ID is assigned in merge order and is the only identity used downstream;
// two records at identical coordinates stay distinct through it.
type Record struct {
	ID             int          `json:"id"`
	Coordinates    Coordinates  `json:"coordinates"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	MediaPath      string       `json:"media_path,omitempty"`
	Category       Category     `json:"category"`
	Timestamp      time.Time    `json:"timestamp"`
	RawTimestamp   string       `json:"raw_timestamp,omitempty"`
	AccuracyMeters float64      `json:"accuracy_meters,omitempty"`
	Origin         SourceOrigin `json:"origin"`
	Color          string       `json:"color,omitempty"`
	Icon           string       `json:"icon,omitempty"`
	Extra          []Field      `json:"extra,omitempty"`
}

// HasTimestamp reports whether the record carries a parsed timestamp.
func (r Record) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// HasMedia reports whether a media reference was configured for the record.
func (r Record) HasMedia() bool {
	return r.MediaPath != ""
}

// TimeKey is the zero-padded wall-clock key used for sorting and time-range
// filtering. Undated records return an empty key.
func (r Record) TimeKey() string {
	if !r.HasTimestamp() {
		return ""
	}
	return r.Timestamp.Format(TimeKeyLayout)
}

// TimeKeyLayout is the layout of Record.TimeKey. Keys compare correctly as strings.
const TimeKeyLayout = "2006-01-02T15:04:05"
