// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Every test gets its own data directory with the default configuration
// and the sample labels.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"labelpress/internal/models"
	"labelpress/internal/render"
	"labelpress/internal/settings"
	"labelpress/internal/store"
)

// fakePrinter records the HTML it was given and returns a fixed PDF.
type fakePrinter struct {
	mu   sync.Mutex
	html []byte
	err  error
}

func (f *fakePrinter) Print(_ context.Context, html []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.html = append([]byte(nil), html...)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	Dir      string
	Settings *settings.Holder
	Labels   *store.CSVStore
	Printer  *fakePrinter
	Pages    *Pages
	API      *API
	Print    *Print
	Router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, true)
}

// newTestEnvWith builds the environment; seed controls whether the label
// file starts with the sample labels.
func newTestEnvWith(t *testing.T, seed bool) *testEnv {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, settings.FileName)
	_, err := settings.EnsureFile(cfgPath)
	require.NoError(t, err)
	holder, err := settings.NewHolder(cfgPath)
	require.NoError(t, err)

	labels := store.NewCSVStore(filepath.Join(dir, store.LabelsFileName))
	if seed {
		_, err := labels.EnsureFile()
		require.NoError(t, err)
	}

	renderer, err := render.New()
	require.NoError(t, err)

	env := &testEnv{
		Dir:      dir,
		Settings: holder,
		Labels:   labels,
		Printer:  &fakePrinter{},
	}
	env.Pages = NewPages(renderer, labels, holder)
	env.API = NewAPI(labels, holder)
	env.Print = NewPrint(renderer, labels, holder, env.Printer)
	env.Router = testRouter(env)
	return env
}

// testRouter mounts the handlers the way the application router does,
// without the middleware stack.
func testRouter(env *testEnv) http.Handler {
	r := chi.NewRouter()
	r.NotFound(env.Pages.NotFound)
	r.Get("/health", Health)
	r.Get("/", env.Pages.Index)
	r.Get("/settings", env.Pages.Settings)
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", env.API.GetConfig)
		r.Post("/config", env.API.PutConfig)
		r.Get("/labels", env.API.ListLabels)
		r.Post("/labels", env.API.CreateLabel)
		r.Put("/labels/{id}", env.API.UpdateLabel)
		r.Delete("/labels/{id}", env.API.DeleteLabel)
		r.Post("/categories", env.API.PutCategory)
		r.Delete("/categories/{name}", env.API.DeleteCategory)
	})
	r.Get("/sheet", env.Print.Sheet)
	r.Get("/preview", env.Print.Preview)
	r.Get("/download", env.Print.Download)
	return r
}

// do sends a request through the test router. body is JSON encoded unless
// it is already a string.
func (env *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = strings.NewReader(string(data))
	}

	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)
	return rr
}

// apiResponse mirrors the JSON envelope with a raw data payload.
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	require.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

// firstLabel returns the first stored label.
func (env *testEnv) firstLabel(t *testing.T) models.Label {
	t.Helper()
	items, err := env.Labels.List()
	require.NoError(t, err)
	require.NotEmpty(t, items)
	return items[0]
}
