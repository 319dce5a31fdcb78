// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"labelpress/internal/label"
	"labelpress/internal/render"
	"labelpress/internal/settings"
)

// Pages groups the server-rendered HTML pages.
type Pages struct {
	renderer *render.Renderer
	labels   LabelStore
	settings *settings.Holder
	now      func() time.Time
}

// NewPages creates the page handler group.
func NewPages(renderer *render.Renderer, labels LabelStore, holder *settings.Holder) *Pages {
	return &Pages{renderer: renderer, labels: labels, settings: holder, now: time.Now}
}

// labelRow is one line of the label table. Problem is set when the label
// cannot be derived under the active configuration.
type labelRow struct {
	ID            uuid.UUID
	Category      string
	ShortCode     string
	StartYear     int
	Subcategories []string
	Format        label.Format
	UniqueID      string
	Problem       string
	Accent        string
	TextColor     string
	Emergency     bool
}

type categoryRow struct {
	Name      string
	ShortCode string
	Color     string
	TextColor string
	Emergency bool
}

// Index renders the label list with the add forms.
func (p *Pages) Index(w http.ResponseWriter, r *http.Request) {
	items, err := p.labels.List()
	if err != nil {
		slog.Error("list labels failed", "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "The label list could not be loaded.")
		return
	}

	snap := p.settings.Snapshot()
	var flashes []render.Flash

	rows := make([]labelRow, 0, len(items))
	for _, l := range items {
		row := labelRow{
			ID:            l.ID,
			Category:      l.Category,
			ShortCode:     l.ShortCode,
			StartYear:     l.StartYear,
			Subcategories: l.Subcategories,
			Format:        l.Format,
			UniqueID:      l.UniqueID(),
			Emergency:     label.KindOf(l.Category) == label.KindEmergency,
		}
		if rc, err := snap.Deriver.Derive(l.ToRecord(), snap.Config); err != nil {
			row.Problem = err.Error()
			flashes = append(flashes, render.Flash{Type: "warning", Message: row.UniqueID + ": " + err.Error()})
		} else {
			row.Accent = rc.AccentColor.Hex()
			row.TextColor = rc.TextColor.Hex()
		}
		rows = append(rows, row)
	}

	cats := make([]categoryRow, 0, len(snap.Config.Categories))
	for _, name := range snap.Document.CategoryNames() {
		c := snap.Config.Categories[name]
		cats = append(cats, categoryRow{
			Name:      name,
			ShortCode: c.ShortCode,
			Color:     c.BaseColor.Hex(),
			TextColor: label.ContrastText(c.BaseColor).Hex(),
			Emergency: label.KindOf(name) == label.KindEmergency,
		})
	}

	var formats []label.Format
	for _, f := range label.Formats {
		if _, ok := snap.Config.Formats[f]; ok {
			formats = append(formats, f)
		}
	}

	p.renderer.Page(w, r, "index", &render.PageData{
		Title:   "Labels",
		Section: "labels",
		Data: map[string]any{
			"Labels":      rows,
			"Categories":  cats,
			"Formats":     formats,
			"CurrentYear": p.now().Year(),
		},
		Flashes: flashes,
	})
}

// Settings renders the configuration editor.
func (p *Pages) Settings(w http.ResponseWriter, r *http.Request) {
	p.renderer.Page(w, r, "settings", &render.PageData{
		Title:   "Settings",
		Section: "settings",
		Data: map[string]any{
			"Doc":  p.settings.Document(),
			"Path": p.settings.Path(),
		},
	})
}

// NotFound answers unknown routes: JSON under /api/, the error page
// elsewhere.
func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, http.StatusNotFound, envelope{Message: "Not found"})
		return
	}
	p.renderer.Error(w, r, http.StatusNotFound, "The page you requested does not exist.")
}
