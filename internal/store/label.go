// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"labelpress/internal/label"
	"labelpress/internal/models"
)

// PostgresStore manages labels in the database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const labelColumns = `id, category, short_code, start_year, subcategories, format, created_at, updated_at`

// scanLabel scans a row into a Label struct. Subcategories are stored in
// the same ";"-joined form the CSV file uses.
func scanLabel(scanner interface{ Scan(...any) error }) (*models.Label, error) {
	var (
		l      models.Label
		subs   string
		format string
	)
	err := scanner.Scan(
		&l.ID, &l.Category, &l.ShortCode, &l.StartYear,
		&subs, &format, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Subcategories = label.SplitSubcategories(subs)
	l.Format = label.NormalizeFormat(format)
	return &l, nil
}

// List returns all labels in insertion order.
func (s *PostgresStore) List() ([]models.Label, error) {
	rows, err := s.db.Query(`SELECT ` + labelColumns + ` FROM labels ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	items := []models.Label{}
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		items = append(items, *l)
	}
	return items, rows.Err()
}

// FindByID retrieves a label by ID. Returns nil if not found.
func (s *PostgresStore) FindByID(id uuid.UUID) (*models.Label, error) {
	row := s.db.QueryRow(`SELECT `+labelColumns+` FROM labels WHERE id = $1`, id)
	l, err := scanLabel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find label by id: %w", err)
	}
	return l, nil
}

// Create inserts a new label and returns it.
func (s *PostgresStore) Create(l *models.Label) (*models.Label, error) {
	n := normalizeLabel(*l)
	row := s.db.QueryRow(`
		INSERT INTO labels (category, short_code, start_year, subcategories, format)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+labelColumns,
		n.Category, n.ShortCode, n.StartYear, label.JoinSubcategories(n.Subcategories), string(n.Format),
	)
	result, err := scanLabel(row)
	if err != nil {
		return nil, fmt.Errorf("create label: %w", err)
	}
	return result, nil
}

// Update modifies an existing label.
func (s *PostgresStore) Update(l *models.Label) error {
	n := normalizeLabel(*l)
	res, err := s.db.Exec(`
		UPDATE labels SET
			category = $1, short_code = $2, start_year = $3,
			subcategories = $4, format = $5, updated_at = NOW()
		WHERE id = $6
	`, n.Category, n.ShortCode, n.StartYear, label.JoinSubcategories(n.Subcategories), string(n.Format), n.ID)
	if err != nil {
		return fmt.Errorf("update label: %w", err)
	}
	return requireOneRow(res)
}

// Delete removes a label by ID.
func (s *PostgresStore) Delete(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM labels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete label: %w", err)
	}
	return requireOneRow(res)
}

// Count returns the number of stored labels.
func (s *PostgresStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM labels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count labels: %w", err)
	}
	return n, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
