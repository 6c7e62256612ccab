package model

// Stats are the running totals of one generation run. They are reported at
// the end of the run and never drive control flow.
type Stats struct {
	Total        int `json:"total"`
	WithMedia    int `json:"with_media"`
	Images       int `json:"images"`
	Videos       int `json:"videos"`
	NoMedia      int `json:"no_media"`
	MissingMedia int `json:"missing_media"`
	EventA       int `json:"event_a"`
	EventB       int `json:"event_b"`
	Skipped      int `json:"skipped"`
	Dropped      int `json:"dropped"`
}

// Events returns the number of event markers.
func (s Stats) Events() int {
	return s.EventA + s.EventB
}
