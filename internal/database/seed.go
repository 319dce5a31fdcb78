package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"labelpress/internal/label"
	"labelpress/internal/models"
)

// Seed inserts the sample labels when the labels table is empty.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM labels").Scan(&count); err != nil {
		return fmt.Errorf("seed check labels: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	samples := models.SampleLabels()
	for _, l := range samples {
		_, err := tx.Exec(`
			INSERT INTO labels (category, short_code, start_year, subcategories, format)
			VALUES ($1, $2, $3, $4, $5)
		`, l.Category, l.ShortCode, l.StartYear, label.JoinSubcategories(l.Subcategories), string(l.Format))
		if err != nil {
			return fmt.Errorf("seed insert %s: %w", l.UniqueID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with sample labels", "count", len(samples))
	return nil
}
