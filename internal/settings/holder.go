// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package settings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"labelpress/internal/label"
)

// Snapshot is an immutable view of the active configuration.
type Snapshot struct {
	Document *Document
	Config   label.Config
	Deriver  *label.Deriver
}

// Holder owns the active configuration and the file it is stored in.
// All methods are safe for concurrent use.
type Holder struct {
	path string

	// writeMu serialises saves and reloads so a reload that read the file
	// before a save cannot install the older document afterwards.
	writeMu sync.Mutex

	mu   sync.RWMutex
	snap Snapshot
}

// NewHolder loads the document at path.
func NewHolder(path string) (*Holder, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	snap, err := newSnapshot(doc)
	if err != nil {
		return nil, err
	}
	return &Holder{path: path, snap: snap}, nil
}

func newSnapshot(doc *Document) (Snapshot, error) {
	cfg, err := doc.LabelConfig()
	if err != nil {
		return Snapshot{}, err
	}
	m, err := label.MeasurerFor(cfg.Style.TextMeasure)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Document: doc, Config: cfg, Deriver: label.NewDeriver(m)}, nil
}

// Path returns the file the holder reads and writes.
func (h *Holder) Path() string { return h.path }

// Snapshot returns the active configuration. Callers must not modify the
// returned document; use Document for an editable copy.
func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Document returns a copy of the active document.
func (h *Holder) Document() *Document {
	return h.Snapshot().Document.Clone()
}

// Replace validates doc, writes it to disk and makes it active.
func (h *Holder) Replace(doc *Document) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return h.replace(doc)
}

func (h *Holder) replace(doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	snap, err := newSnapshot(doc)
	if err != nil {
		return err
	}
	if err := Save(h.path, doc); err != nil {
		return err
	}

	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()
	return nil
}

// Update applies fn to a copy of the active document and replaces it.
func (h *Holder) Update(fn func(*Document) error) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	doc := h.Snapshot().Document.Clone()
	if err := fn(doc); err != nil {
		return err
	}
	return h.replace(doc)
}

// Reload re-reads the file. On error the previous document stays active.
func (h *Holder) Reload() error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	doc, err := Load(h.path)
	if err != nil {
		return err
	}
	snap, err := newSnapshot(doc)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()
	return nil
}

// Watch reloads the document whenever the file changes on disk until ctx
// is cancelled. Invalid edits are logged and ignored.
func (h *Holder) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace the file by rename, so watch the directory.
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(h.path), err)
	}

	target := filepath.Clean(h.path)
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(200 * time.Millisecond)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("settings watcher error", "error", err)

		case <-debounce.C:
			if err := h.Reload(); err != nil {
				slog.Warn("settings reload rejected, keeping previous configuration", "path", h.path, "error", err)
				continue
			}
			slog.Info("settings reloaded", "path", h.path)
		}
	}
}
