package label

import "strings"

// Wrap breaks text into lines no wider than maxWidth points at the given
// font size. Words are packed greedily; a word that alone exceeds maxWidth
// gets a line of its own and is never split. Runs of whitespace collapse
// to single spaces.
func Wrap(text string, maxWidth, size float64, m TextMeasurer) []string {
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(text) {
		if line == "" {
			line = word
			continue
		}
		candidate := line + " " + word
		if m.Width(candidate, size) <= maxWidth {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
