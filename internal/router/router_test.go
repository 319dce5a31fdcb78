// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"labelpress/internal/handlers"
	"labelpress/internal/middleware"
	"labelpress/internal/render"
	"labelpress/internal/settings"
	"labelpress/internal/store"
)

type stubPrinter struct{}

func (stubPrinter) Print(context.Context, []byte) ([]byte, error) {
	return []byte("%PDF-1.7"), nil
}

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) chi.Router {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, settings.FileName)
	if _, err := settings.EnsureFile(cfgPath); err != nil {
		t.Fatalf("EnsureFile: %v", err)
	}
	holder, err := settings.NewHolder(cfgPath)
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	labels := store.NewCSVStore(filepath.Join(dir, store.LabelsFileName))
	if _, err := labels.EnsureFile(); err != nil {
		t.Fatalf("seed labels: %v", err)
	}
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	return New(
		handlers.NewPages(renderer, labels, holder),
		handlers.NewAPI(labels, holder),
		handlers.NewPrint(renderer, labels, holder, stubPrinter{}),
		Options{
			CORSOrigins: []string{"http://localhost:5000"},
			PDFLimiter:  limiter,
		},
	)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
	if w.Header().Get("Set-Cookie") != "" {
		t.Error("health check must not set the CSRF cookie")
	}
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{"/health", "/", "/missing"} {
		w := serve(r, httptest.NewRequest("GET", path, nil))
		if w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: missing X-Content-Type-Options", path)
		}
		if w.Header().Get("Content-Security-Policy") == "" {
			t.Errorf("%s: missing Content-Security-Policy", path)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{"/static/css/app.css", "/static/js/app.js"} {
		w := serve(r, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", path, w.Code)
		}
	}
}

func TestCSRFProtectsAPI(t *testing.T) {
	r := newTestRouter(t, nil)
	body := `{"name":"Garden"}`

	// Without a token the write is refused.
	w := serve(r, httptest.NewRequest("POST", "/api/categories", strings.NewReader(body)))
	if w.Code != http.StatusForbidden {
		t.Fatalf("without token: got %d, want 403", w.Code)
	}

	// Fetch a page to obtain the cookie, then echo it in the header.
	page := serve(r, httptest.NewRequest("GET", "/", nil))
	var cookie *http.Cookie
	for _, c := range page.Result().Cookies() {
		if c.Name == middleware.CSRFCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("index page did not set the CSRF cookie")
	}
	if !strings.Contains(page.Body.String(), `content="`+cookie.Value+`"`) {
		t.Error("CSRF token missing from the page meta tag")
	}

	req := httptest.NewRequest("POST", "/api/categories", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.CSRFHeaderName, cookie.Value)
	req.AddCookie(cookie)
	w = serve(r, req)
	if w.Code != http.StatusOK {
		t.Errorf("with token: got %d, want 200 (%s)", w.Code, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest("OPTIONS", "/api/labels", nil)
	req.Header.Set("Origin", "http://localhost:5000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := serve(r, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5000" {
		t.Errorf("allow origin: got %q", got)
	}

	req = httptest.NewRequest("OPTIONS", "/api/labels", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestPDFRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)
	r := newTestRouter(t, limiter)

	for i := range 2 {
		w := serve(r, httptest.NewRequest("GET", "/preview", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, w.Code)
		}
	}
	w := serve(r, httptest.NewRequest("GET", "/download", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("third request: got %d, want 429", w.Code)
	}

	// The HTML sheet is not limited.
	w = serve(r, httptest.NewRequest("GET", "/sheet", nil))
	if w.Code != http.StatusOK {
		t.Errorf("sheet: got %d, want 200", w.Code)
	}
}
