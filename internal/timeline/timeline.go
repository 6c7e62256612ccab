// Package timeline builds the date -> time -> records tree shown in the
// sidebar.
package timeline

import (
	"sort"
	"strings"
	"unicode/utf8"

	"mediamap/internal/model"
)

const (
	// UnknownDate is the key of the bucket holding undated records. It always
	// sorts last.
	UnknownDate = "Unknown Date"
	// UnknownTime is the slot key inside the UnknownDate bucket.
	UnknownTime = "Unknown Time"

	dayLayout  = "2006-01-02"
	slotLayout = "15:04:05"

	// MaxTitleRunes is the display length of a leaf title before truncation.
	MaxTitleRunes = 50
)

// Entry is a tree leaf. It carries everything the filter engine needs so the
// client never looks anything up.
type Entry struct {
	ID           int               `json:"id"`
	Title        string            `json:"title"`
	FullTitle    string            `json:"full_title"`
	Coordinates  model.Coordinates `json:"coordinates"`
	Category     model.Category    `json:"category"`
	TimeKey      string            `json:"time_key"`
	RawTimestamp string            `json:"raw_timestamp,omitempty"`
}

// Slot groups the entries sharing one time of day.
type Slot struct {
	Key     string  `json:"key"`
	Anchor  string  `json:"anchor"`
	Entries []Entry `json:"entries"`
}

// Day groups the slots of one calendar date.
type Day struct {
	Key    string `json:"key"`
	Anchor string `json:"anchor"`
	Slots  []Slot `json:"slots"`
}

// Tree is the ordered chronological index.
type Tree struct {
	Days []Day `json:"days"`
}

// Len returns the number of leaves.
func (t Tree) Len() int {
	n := 0
	for _, d := range t.Days {
		for _, s := range d.Slots {
			n += len(s.Entries)
		}
	}
	return n
}

// Entries returns the leaves in tree order.
func (t Tree) Entries() []Entry {
	out := make([]Entry, 0, t.Len())
	for _, d := range t.Days {
		for _, s := range d.Slots {
			out = append(out, s.Entries...)
		}
	}
	return out
}

// Build indexes records by timestamp. Days ascend with UnknownDate last,
// slots ascend within a day, and records sharing a timestamp keep their
// input order.
func Build(records []model.Record) Tree {
	sorted := make([]model.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.HasTimestamp() != b.HasTimestamp() {
			return a.HasTimestamp()
		}
		return a.TimeKey() < b.TimeKey()
	})

	var tree Tree
	for _, rec := range sorted {
		dayKey, slotKey := UnknownDate, UnknownTime
		if rec.HasTimestamp() {
			dayKey = rec.Timestamp.Format(dayLayout)
			slotKey = rec.Timestamp.Format(slotLayout)
		}

		if n := len(tree.Days); n == 0 || tree.Days[n-1].Key != dayKey {
			tree.Days = append(tree.Days, Day{Key: dayKey, Anchor: DayAnchor(dayKey)})
		}
		day := &tree.Days[len(tree.Days)-1]

		if n := len(day.Slots); n == 0 || day.Slots[n-1].Key != slotKey {
			day.Slots = append(day.Slots, Slot{Key: slotKey, Anchor: SlotAnchor(dayKey, slotKey)})
		}
		slot := &day.Slots[len(day.Slots)-1]

		slot.Entries = append(slot.Entries, Entry{
			ID:           rec.ID,
			Title:        Truncate(rec.Title, MaxTitleRunes),
			FullTitle:    rec.Title,
			Coordinates:  rec.Coordinates,
			Category:     rec.Category,
			TimeKey:      rec.TimeKey(),
			RawTimestamp: rec.RawTimestamp,
		})
	}
	return tree
}

// Truncate shortens s to max runes and appends "..." when it was cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}

// DayAnchor returns the DOM id of a day group.
func DayAnchor(dayKey string) string {
	return "day-" + sanitize(dayKey)
}

// SlotAnchor returns the DOM id of a time slot.
func SlotAnchor(dayKey, slotKey string) string {
	return "slot-" + sanitize(dayKey) + "-" + sanitize(slotKey)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
