// Package category assigns each record one of the four display categories and
// resolves its marker style.
package category

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"mediamap/internal/model"
)

// ErrAlreadyCategorized is returned when Assign sees a record that already
// carries a category.
var ErrAlreadyCategorized = errors.New("record already categorized")

// DefaultMarkerPhrase marks event titles of the first event type.
const DefaultMarkerPhrase = "ATT Location"

var videoExt = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".wmv": true,
	".mkv": true, ".webm": true, ".m4v": true,
}

var imageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tiff": true, ".tif": true,
}

// IsVideo reports whether path has a known video extension.
func IsVideo(path string) bool {
	return videoExt[strings.ToLower(filepath.Ext(path))]
}

// IsImage reports whether path has a known image extension.
func IsImage(path string) bool {
	return imageExt[strings.ToLower(filepath.Ext(path))]
}

// Categorizer classifies records. The zero value uses DefaultMarkerPhrase.
type Categorizer struct {
	MarkerPhrase string
}

// New returns a Categorizer matching phrase in event titles.
func New(phrase string) *Categorizer {
	return &Categorizer{MarkerPhrase: phrase}
}

// Classify is a pure function of origin, media extension and title.
// Media files are classified by extension only; whether they exist is the
// renderer's concern.
func (c *Categorizer) Classify(rec model.Record) model.Category {
	if rec.Origin == model.OriginEvent {
		if strings.Contains(rec.Title, c.phrase()) {
			return model.CategoryEventA
		}
		return model.CategoryEventB
	}
	if IsVideo(rec.MediaPath) {
		return model.CategoryVideo
	}
	return model.CategoryImage
}

// Assign sets rec.Category. A record is categorized exactly once.
func (c *Categorizer) Assign(rec *model.Record) error {
	if rec.Category != "" {
		return fmt.Errorf("record %d: %w", rec.ID, ErrAlreadyCategorized)
	}
	rec.Category = c.Classify(*rec)
	return nil
}

// AssignAll categorizes every record in place.
func (c *Categorizer) AssignAll(recs []model.Record) error {
	for i := range recs {
		if err := c.Assign(&recs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Categorizer) phrase() string {
	if c == nil || c.MarkerPhrase == "" {
		return DefaultMarkerPhrase
	}
	return c.MarkerPhrase
}
