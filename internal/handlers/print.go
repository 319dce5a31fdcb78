// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"labelpress/internal/label"
	"labelpress/internal/models"
	"labelpress/internal/render"
	"labelpress/internal/settings"
	"labelpress/internal/sheet"
)

// Download file names.
const (
	PreviewFileName  = "labels_preview.pdf"
	DownloadFileName = "binder_labels.pdf"
)

// Print groups the sheet and PDF endpoints.
type Print struct {
	renderer *render.Renderer
	labels   LabelStore
	settings *settings.Holder
	printer  Printer // nil disables PDF output
}

// NewPrint creates the print handler group. printer may be nil when no
// browser is available; the HTML sheet keeps working.
func NewPrint(renderer *render.Renderer, labels LabelStore, holder *settings.Holder, printer Printer) *Print {
	return &Print{renderer: renderer, labels: labels, settings: holder, printer: printer}
}

// selection resolves the "ids" query parameter, a comma separated list of
// label IDs, in the given order. Without ids every stored label is used.
func (p *Print) selection(r *http.Request) ([]models.Label, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("ids"))
	if raw == "" {
		return p.labels.List()
	}

	var out []models.Label
	seen := make(map[uuid.UUID]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, validationError("ids", fmt.Sprintf("%q is not a valid label id", part))
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		l, err := p.labels.FindByID(id)
		if err != nil {
			return nil, err
		}
		if l == nil {
			return nil, validationError("ids", fmt.Sprintf("label %s does not exist", id))
		}
		out = append(out, *l)
	}
	return out, nil
}

// sheetHTML renders the selected labels under the active configuration.
func (p *Print) sheetHTML(r *http.Request) ([]byte, int, error) {
	items, err := p.selection(r)
	if err != nil {
		return nil, 0, err
	}

	records := make([]label.Record, len(items))
	for i := range items {
		records[i] = items[i].ToRecord()
	}

	snap := p.settings.Snapshot()
	var buf bytes.Buffer
	if err := sheet.Render(&buf, records, snap.Deriver, snap.Config); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(records), nil
}

func (p *Print) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("sheet rendering failed", "path", r.URL.Path, "error", err)
	}
	p.renderer.Error(w, r, status, message)
}

// Sheet serves the label sheet as HTML, for printing from the browser.
func (p *Print) Sheet(w http.ResponseWriter, r *http.Request) {
	html, _, err := p.sheetHTML(r)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// Preview serves the PDF inline.
func (p *Print) Preview(w http.ResponseWriter, r *http.Request) {
	p.pdf(w, r, "inline", PreviewFileName)
}

// Download serves the PDF as an attachment.
func (p *Print) Download(w http.ResponseWriter, r *http.Request) {
	p.pdf(w, r, "attachment", DownloadFileName)
}

func (p *Print) pdf(w http.ResponseWriter, r *http.Request, disposition, filename string) {
	if p.printer == nil {
		p.renderer.Error(w, r, http.StatusServiceUnavailable,
			"PDF output is not available: no Chrome or Chromium browser was found. The HTML sheet can still be printed from the browser.")
		return
	}

	html, count, err := p.sheetHTML(r)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	start := time.Now()
	pdf, err := p.printer.Print(r.Context(), html)
	if err != nil {
		slog.Error("pdf print failed", "labels", count, "error", err)
		p.renderer.Error(w, r, http.StatusInternalServerError, "The PDF could not be generated.")
		return
	}
	slog.Info("pdf generated", "labels", count, "bytes", len(pdf), "duration", time.Since(start))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition+`; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(pdf)
}
