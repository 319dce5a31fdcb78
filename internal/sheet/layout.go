// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sheet lays derived labels out on A4 pages, renders them as a
// printable HTML document and converts that document to PDF.
package sheet

import "labelpress/internal/label"

// A4 page size in millimetres.
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
)

// Placement is a label positioned on a page. Coordinates are millimetres
// from the top-left corner of the page.
type Placement struct {
	XMM   float64
	YMM   float64
	Label *label.RenderContext
}

// Page is one printed sheet.
type Page struct {
	Number     int
	Placements []Placement
}

// Paginate places labels left to right, starting at the left margin and
// separated by the gutter. A label that would cross the right margin starts
// a new page. All labels are top-aligned at the top margin. A label wider
// than the printable area is still placed alone on its own page.
func Paginate(labels []*label.RenderContext, style label.Style) []Page {
	var pages []Page
	limit := PageWidthMM - style.PageMarginRightMM
	x := style.PageMarginLeftMM

	for _, rc := range labels {
		if len(pages) == 0 {
			pages = append(pages, Page{Number: 1})
		}
		cur := &pages[len(pages)-1]
		if len(cur.Placements) > 0 && x+rc.WidthMM > limit {
			pages = append(pages, Page{Number: len(pages) + 1})
			cur = &pages[len(pages)-1]
			x = style.PageMarginLeftMM
		}
		cur.Placements = append(cur.Placements, Placement{
			XMM:   x,
			YMM:   style.PageMarginTopMM,
			Label: rc,
		})
		x += rc.WidthMM + style.GutterMM
	}
	return pages
}
