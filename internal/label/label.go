// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package label derives everything needed to print one binder spine label:
// the year-dependent accent colour of a category and the concrete layout
// parameters (dimensions, wrapped text, timeline, emergency styling).
//
// All functions are pure. Configuration is passed in explicitly on every
// call, so a Deriver may be shared by concurrent requests.
package label

import (
	"strconv"
	"strings"
)

// EmergencyCategory is the reserved category name that disables colour
// interpolation and switches a label to emergency styling.
const EmergencyCategory = "Notfall"

// Kind classifies a category as normal or emergency.
type Kind int

const (
	KindNormal Kind = iota
	KindEmergency
)

// KindOf resolves the kind of a category name. The match is exact and
// case-sensitive.
func KindOf(category string) Kind {
	if category == EmergencyCategory {
		return KindEmergency
	}
	return KindNormal
}

func (k Kind) String() string {
	if k == KindEmergency {
		return "emergency"
	}
	return "normal"
}

// Format is the physical width class of a label.
type Format string

const (
	FormatNarrow Format = "narrow"
	FormatMedium Format = "medium"
	FormatWide   Format = "wide"
	FormatExtra  Format = "extra"
)

// Formats lists the recognised format names in ascending width order.
var Formats = []Format{FormatNarrow, FormatMedium, FormatWide, FormatExtra}

// legacyFormats maps the format names used by older label files.
var legacyFormats = map[string]Format{
	"schmal": FormatNarrow,
	"mittel": FormatMedium,
	"breit":  FormatWide,
}

// NormalizeFormat lowercases and trims a format name and maps legacy
// aliases. Unrecognised names are returned as-is so that derivation can
// report them with UnknownFormat.
func NormalizeFormat(s string) Format {
	s = strings.ToLower(strings.TrimSpace(s))
	if f, ok := legacyFormats[s]; ok {
		return f
	}
	return Format(s)
}

// Known reports whether f is one of the recognised format names.
func (f Format) Known() bool {
	for _, k := range Formats {
		if f == k {
			return true
		}
	}
	return false
}

// Dimensions is the physical size of a label in millimetres.
type Dimensions struct {
	WidthMM  float64
	HeightMM float64
}

// FormatTable maps format names to label dimensions.
type FormatTable map[Format]Dimensions

// Category is a configured label category.
type Category struct {
	Name      string
	BaseColor RGB
	ShortCode string
}

// MeasureMode selects how text widths are measured for word wrapping.
type MeasureMode string

const (
	MeasureGlyph     MeasureMode = "glyph"
	MeasureHeuristic MeasureMode = "heuristic"
)

// Style holds the scalar styling parameters of the label sheet.
// Lengths are millimetres, font sizes are points.
type Style struct {
	YearMin int
	YearMax int

	FontSizeHeader    float64
	FontSizeSubheader float64
	FontSizeBody      float64

	PageMarginLeftMM  float64
	PageMarginRightMM float64
	PageMarginTopMM   float64
	GutterMM          float64

	TopBarHeightMM    float64
	PaddingMM         float64
	EmergencyBorderMM float64
	EmergencyText     string

	TextMeasure MeasureMode
	ShowQRCode  bool
}

// Config bundles everything derivation reads from configuration.
type Config struct {
	Style      Style
	Formats    FormatTable
	Categories map[string]Category
}

// Record is one label as stored by the user.
type Record struct {
	Category      string   `json:"category" validate:"notblank"`
	ShortCode     string   `json:"short_code" validate:"notblank"`
	StartYear     int      `json:"start_year"`
	Subcategories []string `json:"subcategories"`
	Format        Format   `json:"format"`
}

// UniqueID returns the identifier printed on a label, e.g. "FIN-2012".
func UniqueID(shortCode string, startYear int) string {
	return shortCode + "-" + strconv.Itoa(startYear)
}

// ParseStartYear parses a start year given as text.
func ParseStartYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, validationErrorf("start_year", "is required")
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, validationErrorf("start_year", "must be an integer, got %q", s)
	}
	return y, nil
}

// SplitSubcategories splits a stored subcategory list. Both ";" and ","
// separate entries; blank entries are dropped.
func SplitSubcategories(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinSubcategories is the inverse of SplitSubcategories.
func JoinSubcategories(subs []string) string {
	return strings.Join(subs, ";")
}
