package label

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// TextMeasurer reports the rendered width of text in points at the given
// font size in points.
type TextMeasurer interface {
	Width(text string, size float64) float64
}

// averageCharWidth is the em fraction used by HeuristicMeasurer.
const averageCharWidth = 0.6

// HeuristicMeasurer estimates widths from the rune count alone.
type HeuristicMeasurer struct{}

func (HeuristicMeasurer) Width(text string, size float64) float64 {
	if size <= 0 || text == "" {
		return 0
	}
	return float64(len([]rune(text))) * size * averageCharWidth
}

// GlyphMeasurer measures text with the advances and kerning of the Go
// Regular font, the same face the label sheet embeds.
type GlyphMeasurer struct {
	font *sfnt.Font
}

var goRegular = sync.OnceValues(func() (*sfnt.Font, error) {
	return sfnt.Parse(goregular.TTF)
})

// NewGlyphMeasurer returns a measurer backed by Go Regular.
func NewGlyphMeasurer() (*GlyphMeasurer, error) {
	f, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("parse go regular: %w", err)
	}
	return &GlyphMeasurer{font: f}, nil
}

// Width is safe for concurrent use; every call uses its own buffer.
func (m *GlyphMeasurer) Width(text string, size float64) float64 {
	if size <= 0 || text == "" {
		return 0
	}
	var (
		buf     sfnt.Buffer
		total   fixed.Int26_6
		prev    sfnt.GlyphIndex
		hasPrev bool
	)
	ppem := fixed.Int26_6(math.Round(size * 64))
	for _, r := range text {
		idx, err := m.font.GlyphIndex(&buf, r)
		if err != nil {
			continue
		}
		if hasPrev {
			if k, err := m.font.Kern(&buf, prev, idx, ppem, font.HintingNone); err == nil {
				total += k
			}
		}
		if adv, err := m.font.GlyphAdvance(&buf, idx, ppem, font.HintingNone); err == nil {
			total += adv
		}
		prev, hasPrev = idx, true
	}
	return float64(total) / 64
}

// MeasurerFor returns the measurer for a configured mode. The empty mode
// means glyph measurement.
func MeasurerFor(mode MeasureMode) (TextMeasurer, error) {
	switch mode {
	case MeasureGlyph, "":
		return NewGlyphMeasurer()
	case MeasureHeuristic:
		return HeuristicMeasurer{}, nil
	default:
		return nil, configurationErrorf("text_measure", "unknown mode %q", string(mode))
	}
}
