// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the label server.
// Handlers are grouped by concern (pages, JSON API, printing) and receive
// their dependencies through the handler struct.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"labelpress/internal/label"
	"labelpress/internal/models"
	"labelpress/internal/sheet"
	"labelpress/internal/store"
)

// LabelStore persists label records. Both the CSV file store and the
// PostgreSQL store satisfy it.
type LabelStore interface {
	List() ([]models.Label, error)
	FindByID(id uuid.UUID) (*models.Label, error)
	Create(l *models.Label) (*models.Label, error)
	Update(l *models.Label) error
	Delete(id uuid.UUID) error
}

// Printer turns a sheet HTML document into PDF bytes.
type Printer interface {
	Print(ctx context.Context, html []byte) ([]byte, error)
}

var (
	_ LabelStore = (*store.CSVStore)(nil)
	_ LabelStore = (*store.PostgresStore)(nil)
	_ Printer    = (*sheet.ChromePrinter)(nil)
)

// envelope is the shape of every JSON API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// writeError sends the failure envelope for err. Label errors carry their
// field details along so forms can highlight the offending inputs.
func writeError(w http.ResponseWriter, err error) {
	status, message := classify(err)
	env := envelope{Message: message}

	var lerr *label.Error
	if errors.As(err, &lerr) && len(lerr.Details) > 0 {
		env.Data = map[string]any{"fields": lerr.Details}
	}
	writeJSON(w, status, env)
}

// classify maps an error to its HTTP status and the message shown to the
// user. Unexpected errors are logged and hidden behind a generic message.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, sheet.ErrNoLabels):
		return http.StatusBadRequest, "No labels to print"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Label not found"
	case errors.Is(err, errCategoryNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, errCategoryInUse):
		return http.StatusConflict, err.Error()
	case errors.Is(err, label.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, label.ErrUnknownFormat):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, label.ErrConfiguration):
		return http.StatusInternalServerError, err.Error()
	}
	slog.Error("request failed", "error", err)
	return http.StatusInternalServerError, "Internal server error"
}

// validationError builds a client error for request parsing failures.
func validationError(field, message string) error {
	return &label.Error{Code: label.CodeValidation, Field: field, Message: message}
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
