// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"

	"labelpress/internal/label"
)

// Label is one stored binder record.
type Label struct {
	ID            uuid.UUID    `json:"id"`
	Category      string       `json:"category"`
	ShortCode     string       `json:"short_code"`
	StartYear     int          `json:"start_year"`
	Subcategories []string     `json:"subcategories"`
	Format        label.Format `json:"format"`
	CreatedAt     time.Time    `json:"created_at,omitzero"`
	UpdatedAt     time.Time    `json:"updated_at,omitzero"`
}

// ToRecord returns the part of the label the layout deriver consumes.
func (l *Label) ToRecord() label.Record {
	return label.Record{
		Category:      l.Category,
		ShortCode:     l.ShortCode,
		StartYear:     l.StartYear,
		Subcategories: l.Subcategories,
		Format:        l.Format,
	}
}

// UniqueID returns the printed identifier, e.g. "FIN-2012".
func (l *Label) UniqueID() string {
	return label.UniqueID(l.ShortCode, l.StartYear)
}

// SampleLabels are the rows a fresh installation starts with.
func SampleLabels() []Label {
	return []Label{
		{Category: "Finance", ShortCode: "FIN", StartYear: 2012, Subcategories: []string{"Taxes", "Payroll", "Bank"}, Format: label.FormatNarrow},
		{Category: "Insurance", ShortCode: "INS", StartYear: 2004, Subcategories: []string{"Liability", "Home", "Car"}, Format: label.FormatWide},
		{Category: label.EmergencyCategory, ShortCode: "ICE", StartYear: 2020, Subcategories: []string{"Passports", "Certificates", "Insurance IDs"}, Format: label.FormatNarrow},
		{Category: "Projects", ShortCode: "PRJ", StartYear: 1999, Subcategories: []string{"Building permit", "Offers", "Invoices"}, Format: label.FormatExtra},
	}
}
