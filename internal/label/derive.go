// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package label

import "strings"

const (
	// TimelineBoxes is the number of boxes on every label's timeline.
	TimelineBoxes = 10

	// ptPerMM converts millimetres to PostScript points.
	ptPerMM = 72 / 25.4

	maxEmergencyLines    = 4
	maxEmergencyLineLen  = 35
	emergencyTruncateLen = 32
)

// TimelineBox is one box of the year-tracking strip. Boxes at even
// positions carry a year marker.
type TimelineBox struct {
	Index   int
	Year    int
	Labeled bool
}

// Subcategory is a subcategory together with its wrapped lines.
type Subcategory struct {
	Text  string
	Lines []string
}

// RenderContext is everything a template needs to draw one label.
type RenderContext struct {
	Category  string
	Kind      Kind
	Emergency bool
	ShortCode string
	StartYear int
	UniqueID  string
	Format    Format

	WidthMM  float64
	HeightMM float64

	BaseColor   RGB
	AccentColor RGB
	BorderColor RGB
	TextColor   RGB

	Subcategories  []Subcategory
	Timeline       []TimelineBox
	EmergencyLines []string

	FontSizeHeader    float64
	FontSizeSubheader float64
	FontSizeBody      float64
	PaddingMM         float64
	TopBarHeightMM    float64
	EmergencyBorderMM float64
}

// Deriver turns records into render contexts.
type Deriver struct {
	measure TextMeasurer
}

// NewDeriver returns a Deriver that wraps text with m.
func NewDeriver(m TextMeasurer) *Deriver {
	return &Deriver{measure: m}
}

// Derive computes the render context of rec under cfg. It returns a
// *Error with CodeValidation, CodeUnknownFormat or CodeConfiguration and
// no context when anything is wrong.
func (d *Deriver) Derive(rec Record, cfg Config) (*RenderContext, error) {
	if err := ValidateRecord(rec); err != nil {
		return nil, err
	}

	dims, ok := cfg.Formats[rec.Format]
	if !ok {
		return nil, unknownFormat(rec.Format)
	}

	cat, ok := cfg.Categories[rec.Category]
	if !ok {
		return nil, configurationErrorf("categories", "no base colour configured for category %q", rec.Category)
	}

	accent, err := Interpolate(cat.BaseColor, rec.StartYear, cfg.Style.YearMin, cfg.Style.YearMax, rec.Category)
	if err != nil {
		return nil, err
	}

	contentWidth := (dims.WidthMM - 2*cfg.Style.PaddingMM) * ptPerMM
	if contentWidth <= 0 {
		return nil, configurationErrorf("padding_mm", "leaves no room for text on a %gmm wide %s label", dims.WidthMM, rec.Format)
	}

	kind := KindOf(rec.Category)
	ctx := &RenderContext{
		Category:  rec.Category,
		Kind:      kind,
		Emergency: kind == KindEmergency,
		ShortCode: rec.ShortCode,
		StartYear: rec.StartYear,
		UniqueID:  UniqueID(rec.ShortCode, rec.StartYear),
		Format:    rec.Format,

		WidthMM:  dims.WidthMM,
		HeightMM: dims.HeightMM,

		BaseColor:   cat.BaseColor,
		AccentColor: accent,
		BorderColor: Black,
		TextColor:   ContrastText(accent),

		Timeline: Timeline(rec.StartYear),

		FontSizeHeader:    cfg.Style.FontSizeHeader,
		FontSizeSubheader: cfg.Style.FontSizeSubheader,
		FontSizeBody:      cfg.Style.FontSizeBody,
		PaddingMM:         cfg.Style.PaddingMM,
		TopBarHeightMM:    cfg.Style.TopBarHeightMM,
		EmergencyBorderMM: cfg.Style.EmergencyBorderMM,
	}

	for _, s := range rec.Subcategories {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		ctx.Subcategories = append(ctx.Subcategories, Subcategory{
			Text:  s,
			Lines: Wrap(s, contentWidth, cfg.Style.FontSizeBody, d.measure),
		})
	}

	if ctx.Emergency {
		ctx.EmergencyLines = emergencyLines(cfg.Style.EmergencyText)
	}

	return ctx, nil
}

// Timeline returns the fixed ten-box strip for a start year.
func Timeline(startYear int) []TimelineBox {
	boxes := make([]TimelineBox, TimelineBoxes)
	for i := range boxes {
		boxes[i] = TimelineBox{Index: i, Year: startYear + i, Labeled: i%2 == 0}
	}
	return boxes
}

// emergencyLines splits the configured notice into at most four printable
// lines, shortening overlong ones.
func emergencyLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(out) == maxEmergencyLines {
			break
		}
		if r := []rune(line); len(r) > maxEmergencyLineLen {
			line = string(r[:emergencyTruncateLen]) + "..."
		}
		out = append(out, line)
	}
	return out
}
