// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelpress/internal/label"
	"labelpress/internal/models"
	"labelpress/internal/settings"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestLabelLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// Create with text inputs, as the browser form sends them.
	rr := env.do(t, http.MethodPost, "/api/labels", map[string]any{
		"category":      "Finance",
		"short_code":    "FIN",
		"start_year":    "2015",
		"subcategories": "Pension; Savings, Loans",
		"format":        "breit",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp := decodeEnvelope(t, rr)
	assert.True(t, resp.Success)
	assert.Equal(t, "Label FIN-2015 added", resp.Message)

	var created models.Label
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, 2015, created.StartYear)
	assert.Equal(t, []string{"Pension", "Savings", "Loans"}, created.Subcategories)
	assert.Equal(t, label.FormatWide, created.Format)

	// List includes the samples and the new label.
	rr = env.do(t, http.MethodGet, "/api/labels", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []models.Label
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &listed))
	assert.Len(t, listed, len(models.SampleLabels())+1)

	// Update with JSON types.
	rr = env.do(t, http.MethodPut, "/api/labels/"+created.ID.String(), map[string]any{
		"category":      "Finance",
		"short_code":    "FIN",
		"start_year":    2016,
		"subcategories": []string{"Pension"},
		"format":        "medium",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got, err := env.Labels.FindByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2016, got.StartYear)
	assert.Equal(t, label.FormatMedium, got.Format)
	assert.Equal(t, []string{"Pension"}, got.Subcategories)

	// Delete, then deleting again is a 404.
	rr = env.do(t, http.MethodDelete, "/api/labels/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodDelete, "/api/labels/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, decodeEnvelope(t, rr).Success)
}

func TestCreateLabelRejects(t *testing.T) {
	env := newTestEnv(t)

	valid := func() map[string]any {
		return map[string]any{
			"category":   "Finance",
			"short_code": "FIN",
			"start_year": 2012,
			"format":     "narrow",
		}
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
		status int
	}{
		{"blank category", func(b map[string]any) { b["category"] = "  " }, http.StatusBadRequest},
		{"blank short code", func(b map[string]any) { delete(b, "short_code") }, http.StatusBadRequest},
		{"non-numeric year", func(b map[string]any) { b["start_year"] = "twenty" }, http.StatusBadRequest},
		{"missing year", func(b map[string]any) { delete(b, "start_year") }, http.StatusBadRequest},
		{"unconfigured category", func(b map[string]any) { b["category"] = "Hobbies" }, http.StatusBadRequest},
		{"unknown field", func(b map[string]any) { b["colour"] = "red" }, http.StatusBadRequest},
		{"unknown format", func(b map[string]any) { b["format"] = "huge" }, http.StatusUnprocessableEntity},
		{"separator inside list entry", func(b map[string]any) { b["subcategories"] = []string{"Tax, 2020"} }, http.StatusBadRequest},
		{"subcategories of wrong type", func(b map[string]any) { b["subcategories"] = 12 }, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := valid()
			tt.mutate(body)
			rr := env.do(t, http.MethodPost, "/api/labels", body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			resp := decodeEnvelope(t, rr)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}

	items, err := env.Labels.List()
	require.NoError(t, err)
	assert.Len(t, items, len(models.SampleLabels()), "rejected labels must not be stored")
}

func TestCreateLabelMalformedJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/labels", `{"category": "Finance",`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateLabelBadID(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]any{"category": "Finance", "short_code": "FIN", "start_year": 2012}

	rr := env.do(t, http.MethodPut, "/api/labels/not-a-uuid", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPut, "/api/labels/"+uuid.NewString(), body)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestConfigRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var doc settings.Document
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &doc))
	assert.Equal(t, 1990, doc.YearMin)
	assert.Equal(t, 2030, doc.YearMax)

	doc.YearMax = 2040
	doc.ShowQRCode = false
	rr = env.do(t, http.MethodPost, "/api/config", doc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, 2040, env.Settings.Snapshot().Config.Style.YearMax)
	onDisk, err := settings.Load(env.Settings.Path())
	require.NoError(t, err)
	assert.Equal(t, 2040, onDisk.YearMax)
	assert.False(t, onDisk.ShowQRCode)
}

func TestConfigRejectsInvalid(t *testing.T) {
	env := newTestEnv(t)

	doc := env.Settings.Document()
	doc.YearMax = doc.YearMin
	doc.PutCategory("Garden", settings.CategorySpec{BaseColor: "green", ShortCode: "GAR"})

	rr := env.do(t, http.MethodPost, "/api/config", doc)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Fields map[string]string `json:"fields"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Data.Fields, "year_max")
	assert.Contains(t, resp.Data.Fields, "categories.Garden.base_color")

	assert.Equal(t, 2030, env.Settings.Snapshot().Config.Style.YearMax, "previous configuration stays active")
}

func TestConfigRejectsUnknownKeys(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/config", `{"year_min": 1990, "colour_mode": "cmyk"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPutCategoryDefaults(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Taxes Archive"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	cat, ok := env.Settings.Snapshot().Config.Categories["Taxes Archive"]
	require.True(t, ok)
	assert.Equal(t, "TAX", cat.ShortCode)
	assert.Equal(t, label.SuggestColor("Taxes Archive"), cat.BaseColor)
}

func TestPutCategoryExplicit(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/categories", map[string]string{
		"name": "Garden", "color": "#33AA55", "short_code": "grd",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	doc := env.Settings.Document()
	assert.Equal(t, settings.CategorySpec{BaseColor: "#33aa55", ShortCode: "GRD"}, doc.Categories["Garden"])

	rr = env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Garden", "color": "leafy"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteCategory(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodDelete, "/api/categories/Medical", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	_, ok := env.Settings.Snapshot().Config.Categories["Medical"]
	assert.False(t, ok)

	rr = env.do(t, http.MethodDelete, "/api/categories/Medical", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Finance is used by a sample label.
	rr = env.do(t, http.MethodDelete, "/api/categories/Finance", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	_, ok = env.Settings.Snapshot().Config.Categories["Finance"]
	assert.True(t, ok)
}

func TestDeleteCategoryEscapedName(t *testing.T) {
	env := newTestEnv(t)

	names := map[string]string{
		"R&D":        "/api/categories/R%26D",
		"Tax/Legal":  "/api/categories/Tax%2FLegal",
		"Work Stuff": "/api/categories/Work%20Stuff",
		"A+B":        "/api/categories/A%2BB",
	}
	for name := range names {
		rr := env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": name})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	for name, target := range names {
		rr := env.do(t, http.MethodDelete, target, nil)
		assert.Equal(t, http.StatusOK, rr.Code, "%s: %s", name, rr.Body.String())
		_, ok := env.Settings.Snapshot().Config.Categories[name]
		assert.False(t, ok, name)
	}
}

func TestSubcategoryListKeepsEntries(t *testing.T) {
	var l subcategoryList
	require.NoError(t, json.Unmarshal([]byte(`[" Tax 2020 ", "", "Bank"]`), &l))
	assert.Equal(t, subcategoryList{"Tax 2020", "Bank"}, l)

	require.NoError(t, json.Unmarshal([]byte(`"Pension; Savings, Loans"`), &l))
	assert.Equal(t, subcategoryList{"Pension", "Savings", "Loans"}, l)

	err := json.Unmarshal([]byte(`["Tax; 2020"]`), &l)
	require.Error(t, err)
	assert.ErrorIs(t, err, label.ErrValidation)
}

func TestUnknownAPIRouteIsJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/nothing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, decodeEnvelope(t, rr).Success)
}
