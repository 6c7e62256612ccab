package category

import "mediamap/internal/model"

// Style is the marker appearance of a record.
type Style struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
	// Hex is the CSS color of the accuracy circle.
	Hex string `json:"hex"`
}

// FallbackHex is used for colors outside the palette.
const FallbackHex = "#0000FF"

// Palette maps marker color names to CSS hex values.
var Palette = map[string]string{
	"lightgreen": "#90EE90",
	"orange":     "#FFA500",
	"blue":       "#0000FF",
	"red":        "#FF0000",
	"green":      "#008000",
	"purple":     "#800080",
	"darkred":    "#8B0000",
	"lightred":   "#FFB6C1",
	"beige":      "#F5F5DC",
	"darkblue":   "#00008B",
	"darkgreen":  "#006400",
	"cadetblue":  "#5F9EA0",
	"darkpurple": "#9400D3",
	"white":      "#FFFFFF",
	"pink":       "#FFC0CB",
	"lightblue":  "#ADD8E6",
	"gray":       "#808080",
	"black":      "#000000",
	"lightgray":  "#D3D3D3",
}

// Icons maps source icon names to Font Awesome icon names.
var Icons = map[string]string{
	"camera":   "camera",
	"video":    "video-camera",
	"photo":    "picture-o",
	"film":     "film",
	"play":     "play-circle",
	"location": "map-marker",
	"home":     "home",
	"car":      "car",
	"flag":     "flag",
	"info":     "info-circle",
	"star":     "star",
	"circle":   "circle",
}

var defaults = map[model.Category]Style{
	model.CategoryImage:  {Color: "blue", Icon: "camera"},
	model.CategoryVideo:  {Color: "darkblue", Icon: "video-camera"},
	model.CategoryEventA: {Color: "lightgreen", Icon: "circle"},
	model.CategoryEventB: {Color: "orange", Icon: "circle"},
}

// DefaultStyle returns the style of a category without overrides.
func DefaultStyle(c model.Category) Style {
	s, ok := defaults[c]
	if !ok {
		s = defaults[model.CategoryImage]
	}
	s.Hex = Hex(s.Color)
	return s
}

// StyleOf resolves the style of a categorized record. Media records may
// override color and icon with known values; event records never do.
func StyleOf(rec model.Record) Style {
	s := DefaultStyle(rec.Category)
	if rec.Category.IsEvent() {
		return s
	}
	if _, ok := Palette[rec.Color]; ok {
		s.Color = rec.Color
		s.Hex = Hex(rec.Color)
	}
	if icon, ok := Icons[rec.Icon]; ok {
		s.Icon = icon
	}
	return s
}

// Hex returns the CSS value of a palette color.
func Hex(color string) string {
	if h, ok := Palette[color]; ok {
		return h
	}
	return FallbackHex
}
