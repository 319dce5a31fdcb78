// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"labelpress/internal/label"
	"labelpress/internal/models"
)

// LabelsFileName is the name of the label file inside the data directory.
const LabelsFileName = "binder_labels.csv"

var csvHeader = []string{"ID", "Category", "ShortCode", "StartYear", "Subcategories", "Format"}

// CSVStore keeps labels in a flat CSV file. Every call reads the file, so
// edits made by hand between requests are picked up. Writes are
// serialised and replace the file atomically.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore returns a store backed by the file at path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file.
func (s *CSVStore) Path() string { return s.path }

// EnsureFile writes the sample labels if the file does not exist yet and
// reports whether it did.
func (s *CSVStore) EnsureFile() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat labels: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return false, fmt.Errorf("create labels dir: %w", err)
	}
	samples := models.SampleLabels()
	for i := range samples {
		samples[i].ID = uuid.New()
	}
	if err := s.write(samples); err != nil {
		return false, err
	}
	return true, nil
}

// List returns all labels in file order.
func (s *CSVStore) List() ([]models.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// FindByID returns the label with the given ID, or nil if there is none.
func (s *CSVStore) FindByID(id uuid.UUID) (*models.Label, error) {
	items, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

// Create appends a label and returns it with a fresh ID.
func (s *CSVStore) Create(l *models.Label) (*models.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}

	created := normalizeLabel(*l)
	created.ID = uuid.New()
	items = append(items, created)
	if err := s.write(items); err != nil {
		return nil, fmt.Errorf("create label: %w", err)
	}
	return &created, nil
}

// Update replaces the label with l.ID.
func (s *CSVStore) Update(l *models.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == l.ID {
			items[i] = normalizeLabel(*l)
			if err := s.write(items); err != nil {
				return fmt.Errorf("update label: %w", err)
			}
			return nil
		}
	}
	return ErrNotFound
}

// Delete removes the label with the given ID.
func (s *CSVStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			items = append(items[:i], items[i+1:]...)
			if err := s.write(items); err != nil {
				return fmt.Errorf("delete label: %w", err)
			}
			return nil
		}
	}
	return ErrNotFound
}

// load reads the file. Rows without an ID (files written before the ID
// column existed) get one, and the file is rewritten so the IDs stick.
// Callers must hold s.mu.
func (s *CSVStore) load() ([]models.Label, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Label{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	items, assigned, err := ReadLabels(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if assigned > 0 {
		if err := s.write(items); err != nil {
			return nil, fmt.Errorf("persist assigned ids: %w", err)
		}
		slog.Info("assigned ids to labels", "path", s.path, "count", assigned)
	}
	return items, nil
}

func (s *CSVStore) write(items []models.Label) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteLabels(tmp, items); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace labels: %w", err)
	}
	return nil
}

// ReadLabels parses labels in CSV form. Column names are matched without
// regard to case; the ID and Subcategories columns are optional. It returns
// the number of rows that had no ID and were assigned one.
func ReadLabels(r io.Reader) ([]models.Label, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []models.Label{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"category", "shortcode", "startyear", "format"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	items := []models.Label{}
	assigned := 0
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}
		if isBlankRow(row) {
			continue
		}

		year, err := parseYear(field(row, "startyear"))
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}

		l := models.Label{
			Category:      field(row, "category"),
			ShortCode:     field(row, "shortcode"),
			StartYear:     year,
			Subcategories: label.SplitSubcategories(field(row, "subcategories")),
			Format:        label.NormalizeFormat(field(row, "format")),
		}

		if raw := field(row, "id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, 0, fmt.Errorf("line %d: invalid id %q: %w", line, raw, err)
			}
			l.ID = id
		} else {
			l.ID = uuid.New()
			assigned++
		}
		items = append(items, l)
	}
	return items, assigned, nil
}

// parseYear accepts "2012" and spreadsheet exports such as "2012.0".
func parseYear(s string) (int, error) {
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" {
		s = whole
	}
	return label.ParseStartYear(s)
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteLabels writes labels in CSV form with the canonical header.
func WriteLabels(w io.Writer, items []models.Label) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, l := range items {
		err := cw.Write([]string{
			l.ID.String(),
			l.Category,
			l.ShortCode,
			strconv.Itoa(l.StartYear),
			label.JoinSubcategories(l.Subcategories),
			string(l.Format),
		})
		if err != nil {
			return fmt.Errorf("write label %s: %w", l.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// normalizeLabel trims text fields, drops blank subcategories and maps
// legacy format names.
func normalizeLabel(l models.Label) models.Label {
	l.Category = strings.TrimSpace(l.Category)
	l.ShortCode = strings.TrimSpace(l.ShortCode)
	l.Format = label.NormalizeFormat(string(l.Format))

	subs := make([]string, 0, len(l.Subcategories))
	for _, s := range l.Subcategories {
		if s = strings.TrimSpace(s); s != "" {
			subs = append(subs, s)
		}
	}
	l.Subcategories = subs
	return l
}
