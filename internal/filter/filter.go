// Package filter is the reference implementation of the client-side filter
// engine embedded in the generated document. The browser runs filter.js; the
// Go code computes the same plans and backs the tests that keep both in step.
package filter

import (
	_ "embed"
	"sort"
	"strings"

	"mediamap/internal/model"
	"mediamap/internal/timeline"
)

// Script is the browser implementation. It defines window.MediaMapFilter.
//
//go:embed filter.js
var Script string

// MediaMode is the single-select media selector.
type MediaMode string

const (
	MediaAll    MediaMode = "all"
	MediaImages MediaMode = "images"
	MediaVideos MediaMode = "videos"
)

// Tier selects how a plan is applied to the map.
type Tier string

const (
	// TierCategory toggles whole cluster layers. Used when no time bound is set.
	TierCategory Tier = "category"
	// TierRecord clears the clusters and rebuilds them from the visible IDs.
	TierRecord Tier = "record"
)

// State is the filter input. Start and End use the datetime-local form
// YYYY-MM-DDTHH:MM[:SS]; empty means unbounded.
type State struct {
	Media  MediaMode `json:"media"`
	EventA bool      `json:"eventA"`
	EventB bool      `json:"eventB"`
	Start  string    `json:"start"`
	End    string    `json:"end"`
}

// DefaultState shows everything.
func DefaultState() State {
	return State{Media: MediaAll, EventA: true, EventB: true}
}

// HasBound reports whether either time bound is set.
func (s State) HasBound() bool {
	return NormalizeBound(s.Start) != "" || NormalizeBound(s.End) != ""
}

// Ref is the per-record data the engine filters on.
type Ref struct {
	ID       int            `json:"id"`
	Category model.Category `json:"category"`
	// Time is the record's zero-padded wall-clock key, empty when undated.
	Time string `json:"time"`
}

// RefsFrom builds the engine's record array.
func RefsFrom(recs []model.Record) []Ref {
	out := make([]Ref, len(recs))
	for i, r := range recs {
		out[i] = Ref{ID: r.ID, Category: r.Category, Time: r.TimeKey()}
	}
	return out
}

// NormalizeBound brings a datetime-local value to the record key layout.
// Minute precision gains ":00" and fractional seconds are cut, so keys
// compare as plain strings.
func NormalizeBound(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case len(s) == len("2006-01-02T15:04"):
		return s + ":00"
	case len(s) > len(recordKeyLayout):
		return s[:len(recordKeyLayout)]
	}
	return s
}

const recordKeyLayout = "2006-01-02T15:04:05"

// LayerEnabled reports whether the type criteria admit category c.
// Event categories follow their toggle only; the media selector never
// applies to them.
func LayerEnabled(c model.Category, s State) bool {
	switch c {
	case model.CategoryEventA:
		return s.EventA
	case model.CategoryEventB:
		return s.EventB
	case model.CategoryImage:
		return s.Media == MediaAll || s.Media == MediaImages
	case model.CategoryVideo:
		return s.Media == MediaAll || s.Media == MediaVideos
	}
	return false
}

// TypeMatch is the type criterion of one record.
func TypeMatch(r Ref, s State) bool {
	return LayerEnabled(r.Category, s)
}

// TimeMatch is the time criterion. Without bounds every record matches; with
// any bound an undated record never does. Bounds are inclusive.
func TimeMatch(r Ref, s State) bool {
	start, end := NormalizeBound(s.Start), NormalizeBound(s.End)
	if start == "" && end == "" {
		return true
	}
	if r.Time == "" {
		return false
	}
	if start != "" && r.Time < start {
		return false
	}
	if end != "" && r.Time > end {
		return false
	}
	return true
}

// Visible combines both criteria.
func Visible(r Ref, s State) bool {
	return TypeMatch(r, s) && TimeMatch(r, s)
}

// Plan is the outcome of one filter pass. Both the map and the tree are
// reconciled from Visible.
type Plan struct {
	Tier    Tier                    `json:"tier"`
	Visible map[int]bool            `json:"-"`
	IDs     []int                   `json:"ids"`
	Layers  map[model.Category]bool `json:"layers"`
}

// Count returns the number of visible records.
func (p Plan) Count() int {
	return len(p.IDs)
}

// ComputePlan evaluates every ref once.
func ComputePlan(refs []Ref, s State) Plan {
	p := Plan{
		Tier:    TierCategory,
		Visible: make(map[int]bool, len(refs)),
		IDs:     []int{},
		Layers:  make(map[model.Category]bool, len(model.Categories)),
	}
	if s.HasBound() {
		p.Tier = TierRecord
	}
	for _, c := range model.Categories {
		p.Layers[c] = LayerEnabled(c, s)
	}
	for _, r := range refs {
		if Visible(r, s) {
			p.Visible[r.ID] = true
			p.IDs = append(p.IDs, r.ID)
		}
	}
	sort.Ints(p.IDs)
	return p
}

// Groups holds the derived visibility of tree groups keyed by DOM anchor.
type Groups struct {
	Days  map[string]bool `json:"days"`
	Slots map[string]bool `json:"slots"`
}

// GroupVisibility derives group visibility from the leaves: a slot shows iff
// one of its entries does, a day iff one of its slots does.
func GroupVisibility(tree timeline.Tree, visible map[int]bool) Groups {
	g := Groups{Days: map[string]bool{}, Slots: map[string]bool{}}
	for _, d := range tree.Days {
		dayOn := false
		for _, sl := range d.Slots {
			slotOn := false
			for _, e := range sl.Entries {
				if visible[e.ID] {
					slotOn = true
					break
				}
			}
			g.Slots[sl.Anchor] = slotOn
			dayOn = dayOn || slotOn
		}
		g.Days[d.Anchor] = dayOn
	}
	return g
}

// TreeIndex is the compact tree shape filter.js walks.
type TreeIndex struct {
	Days []DayIndex `json:"days"`
}

// DayIndex lists the slots of one day.
type DayIndex struct {
	Anchor string      `json:"anchor"`
	Slots  []SlotIndex `json:"slots"`
}

// SlotIndex lists the record IDs of one slot.
type SlotIndex struct {
	Anchor string `json:"anchor"`
	IDs    []int  `json:"ids"`
}

// IndexTree strips a tree down to anchors and IDs.
func IndexTree(tree timeline.Tree) TreeIndex {
	idx := TreeIndex{Days: make([]DayIndex, 0, len(tree.Days))}
	for _, d := range tree.Days {
		di := DayIndex{Anchor: d.Anchor, Slots: make([]SlotIndex, 0, len(d.Slots))}
		for _, sl := range d.Slots {
			si := SlotIndex{Anchor: sl.Anchor, IDs: make([]int, 0, len(sl.Entries))}
			for _, e := range sl.Entries {
				si.IDs = append(si.IDs, e.ID)
			}
			di.Slots = append(di.Slots, si)
		}
		idx.Days = append(idx.Days, di)
	}
	return idx
}
