// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives ASCII identifiers from category names: URL and
// file name slugs, and the default short code of a new category.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches runs of anything that isn't a letter or digit.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
)

// fold decomposes accented characters and drops everything outside ASCII,
// so "Ärzte" becomes "Arzte".
func fold(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, norm.NFKD.String(s))
}

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(fold(s))
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// ShortCode suggests a short code for a category: the first three letters
// or digits of the folded name, upper-cased. "Finance" → "FIN",
// "Ärzte" → "ARZ".
func ShortCode(name string) string {
	var b strings.Builder
	for _, r := range fold(name) {
		if b.Len() == 3 {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
