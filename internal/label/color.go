// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package label

import (
	"crypto/sha1"
	"encoding/binary"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// ParseHex parses "#rrggbb" or "#rgb".
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return RGB{}, configurationErrorf("base_color", "%q is not a hex colour", s)
	}
	r, g, b := c.RGB255()
	return RGB{r, g, b}, nil
}

// Hex formats the colour as lowercase "#rrggbb".
func (c RGB) Hex() string {
	return c.colorful().Hex()
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Interpolate returns the accent colour for a label: the category's base
// colour mixed linearly toward white by the position of startYear within
// [yearMin, yearMax]. Years outside the range are clamped to its ends.
// The emergency category always keeps its base colour.
//
// An empty or inverted year range is a configuration error.
func Interpolate(base RGB, startYear, yearMin, yearMax int, category string) (RGB, error) {
	if yearMax <= yearMin {
		return RGB{}, configurationErrorf("year_max", "must be greater than year_min (got %d..%d)", yearMin, yearMax)
	}
	if KindOf(category) == KindEmergency {
		return base, nil
	}
	t := float64(startYear-yearMin) / float64(yearMax-yearMin)
	t = math.Max(0, math.Min(1, t))
	return RGB{
		R: mixToWhite(base.R, t),
		G: mixToWhite(base.G, t),
		B: mixToWhite(base.B, t),
	}, nil
}

func mixToWhite(c uint8, t float64) uint8 {
	v := math.Round(float64(c) + t*(255-float64(c)))
	return uint8(math.Max(0, math.Min(255, v)))
}

// ContrastText picks black or white text for the given background.
func ContrastText(bg RGB) RGB {
	c := bg.colorful()
	if 0.299*c.R+0.587*c.G+0.114*c.B > 0.5 {
		return Black
	}
	return White
}

// SuggestColor derives a stable, moderately saturated colour from a
// category name. It only seeds the category form; derivation never falls
// back to it.
func SuggestColor(name string) RGB {
	sum := sha1.Sum([]byte(name))
	h := binary.BigEndian.Uint32(sum[:4])
	hue := float64(h%36000) / 100
	sat := 0.45 + float64((h>>8)%2000)/2000*0.20
	lum := 0.45 + float64((h>>16)%1500)/1500*0.15
	r, g, b := colorful.Hsl(hue, sat, lum).Clamped().RGB255()
	return RGB{r, g, b}
}
