// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"labelpress/internal/label"
	"labelpress/internal/models"
	"labelpress/internal/settings"
	"labelpress/internal/slug"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var (
	errCategoryNotFound = errors.New("category not found")
	errCategoryInUse    = errors.New("category is still used")
)

// API groups the JSON endpoints used by the page scripts.
type API struct {
	labels   LabelStore
	settings *settings.Holder
}

// NewAPI creates the JSON API handler group.
func NewAPI(labels LabelStore, holder *settings.Holder) *API {
	return &API{labels: labels, settings: holder}
}

// yearValue accepts a start year as a JSON number or as text.
type yearValue int

func (y *yearValue) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*y = yearValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return validationError("start_year", "must be an integer")
	}
	v, err := label.ParseStartYear(s)
	if err != nil {
		return err
	}
	*y = yearValue(v)
	return nil
}

// subcategoryList accepts either a JSON array or a single string separated
// by ";" or ",". Array elements are taken as they are and must not contain
// a separator.
type subcategoryList []string

func (l *subcategoryList) UnmarshalJSON(b []byte) error {
	var items []string
	if err := json.Unmarshal(b, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if strings.ContainsAny(item, ";,") {
				return validationError("subcategories", fmt.Sprintf("entry %q must not contain \";\" or \",\"", item))
			}
			out = append(out, item)
		}
		*l = out
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return validationError("subcategories", "must be a list or a text")
	}
	*l = label.SplitSubcategories(s)
	return nil
}

// labelInput is the body of label create and update requests.
type labelInput struct {
	Category      string          `json:"category"`
	ShortCode     string          `json:"short_code"`
	StartYear     yearValue       `json:"start_year"`
	Subcategories subcategoryList `json:"subcategories"`
	Format        string          `json:"format"`
}

// decodeJSON reads a JSON body into dst. Decoding problems are reported as
// validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var lerr *label.Error
		if errors.As(err, &lerr) {
			return lerr
		}
		return validationError("body", "is not valid JSON: "+err.Error())
	}
	return nil
}

// toLabel validates the input against the active configuration. A missing
// format falls back to narrow.
func (a *API) toLabel(in labelInput) (*models.Label, error) {
	l := &models.Label{
		Category:      strings.TrimSpace(in.Category),
		ShortCode:     strings.TrimSpace(in.ShortCode),
		StartYear:     int(in.StartYear),
		Subcategories: []string(in.Subcategories),
		Format:        label.NormalizeFormat(in.Format),
	}
	if l.Format == "" {
		l.Format = label.FormatNarrow
	}
	if err := label.ValidateRecord(l.ToRecord()); err != nil {
		return nil, err
	}
	if l.StartYear <= 0 {
		return nil, validationError("start_year", "must be a positive year")
	}

	snap := a.settings.Snapshot()
	if _, ok := snap.Config.Formats[l.Format]; !ok {
		return nil, &label.Error{
			Code:    label.CodeUnknownFormat,
			Field:   "format",
			Message: fmt.Sprintf("%q is not in the configured format table", string(l.Format)),
		}
	}
	if _, ok := snap.Config.Categories[l.Category]; !ok {
		return nil, validationError("category", fmt.Sprintf("%q is not a configured category", l.Category))
	}
	return l, nil
}

func parseLabelID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, validationError("id", "is not a valid label id")
	}
	return id, nil
}

// ListLabels returns every stored label.
func (a *API) ListLabels(w http.ResponseWriter, r *http.Request) {
	items, err := a.labels.List()
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.Label{}
	}
	writeOK(w, http.StatusOK, "", items)
}

// CreateLabel stores a new label.
func (a *API) CreateLabel(w http.ResponseWriter, r *http.Request) {
	var in labelInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	l, err := a.toLabel(in)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := a.labels.Create(l)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("label created", "id", created.ID, "label", created.UniqueID())
	writeOK(w, http.StatusCreated, "Label "+created.UniqueID()+" added", created)
}

// UpdateLabel replaces a stored label.
func (a *API) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	id, err := parseLabelID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in labelInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	l, err := a.toLabel(in)
	if err != nil {
		writeError(w, err)
		return
	}
	l.ID = id

	if err := a.labels.Update(l); err != nil {
		writeError(w, err)
		return
	}
	slog.Info("label updated", "id", id, "label", l.UniqueID())
	writeOK(w, http.StatusOK, "Label "+l.UniqueID()+" saved", l)
}

// DeleteLabel removes a stored label.
func (a *API) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	id, err := parseLabelID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.labels.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	slog.Info("label deleted", "id", id)
	writeOK(w, http.StatusOK, "Label deleted", nil)
}

// GetConfig returns the active style configuration.
func (a *API) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "", a.settings.Document())
}

// PutConfig validates and saves a complete configuration document. An
// invalid document is the client's fault here, so it answers 400 rather
// than the 500 a broken file on disk gets.
func (a *API) PutConfig(w http.ResponseWriter, r *http.Request) {
	var doc settings.Document
	if err := decodeJSON(w, r, &doc); err != nil {
		writeError(w, err)
		return
	}
	if err := a.settings.Replace(&doc); err != nil {
		writeConfigError(w, err)
		return
	}
	slog.Info("settings saved", "path", a.settings.Path())
	writeOK(w, http.StatusOK, "Settings saved", a.settings.Document())
}

func writeConfigError(w http.ResponseWriter, err error) {
	var lerr *label.Error
	if errors.As(err, &lerr) && lerr.Code == label.CodeConfiguration {
		env := envelope{Message: lerr.Error()}
		if len(lerr.Details) > 0 {
			env.Data = map[string]any{"fields": lerr.Details}
		}
		writeJSON(w, http.StatusBadRequest, env)
		return
	}
	writeError(w, err)
}

// categoryInput is the body of the add category request. Colour and short
// code are optional.
type categoryInput struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	ShortCode string `json:"short_code"`
}

// PutCategory adds a category or replaces an existing one.
func (a *API) PutCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		writeError(w, validationError("name", "is required"))
		return
	}

	color := label.SuggestColor(name)
	if strings.TrimSpace(in.Color) != "" {
		c, err := label.ParseHex(in.Color)
		if err != nil {
			writeError(w, validationError("color", fmt.Sprintf("%q is not a hex colour", in.Color)))
			return
		}
		color = c
	}

	code := strings.ToUpper(strings.TrimSpace(in.ShortCode))
	if code == "" {
		code = slug.ShortCode(name)
	}
	if code == "" {
		writeError(w, validationError("short_code", "is required when the name has no letters"))
		return
	}

	spec := settings.CategorySpec{BaseColor: color.Hex(), ShortCode: code}
	err := a.settings.Update(func(d *settings.Document) error {
		d.PutCategory(name, spec)
		return nil
	})
	if err != nil {
		writeConfigError(w, err)
		return
	}
	slog.Info("category saved", "name", name, "color", spec.BaseColor)
	writeOK(w, http.StatusOK, "Category "+name+" saved", map[string]any{
		"name":       name,
		"base_color": spec.BaseColor,
		"short_code": spec.ShortCode,
	})
}

// categoryName returns the unescaped {name} route parameter. chi matches on
// the raw path when the request has one, so names like "R&D" or "Tax/Legal"
// arrive still percent-encoded.
func categoryName(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, nil
	}
	name, err := url.PathUnescape(name)
	if err != nil {
		return "", validationError("name", "is not a valid category name")
	}
	return name, nil
}

// DeleteCategory removes a category. Categories still referenced by a
// stored label are kept so those labels stay printable.
func (a *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	name, err := categoryName(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := a.labels.List()
	if err != nil {
		writeError(w, err)
		return
	}
	var used int
	for _, l := range items {
		if l.Category == name {
			used++
		}
	}

	err = a.settings.Update(func(d *settings.Document) error {
		if _, ok := d.Categories[name]; !ok {
			return fmt.Errorf("%w: %s", errCategoryNotFound, name)
		}
		if used > 0 {
			return fmt.Errorf("%w: %s by %d label(s)", errCategoryInUse, name, used)
		}
		d.DeleteCategory(name)
		return nil
	})
	if err != nil {
		writeConfigError(w, err)
		return
	}
	slog.Info("category deleted", "name", name)
	writeOK(w, http.StatusOK, "Category "+name+" removed", nil)
}
