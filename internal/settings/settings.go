// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package settings loads, validates and persists the label style
// configuration, a YAML document edited by the user through the settings
// page or by hand.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"gopkg.in/yaml.v3"

	"labelpress/internal/label"
)

// FileName is the name of the configuration file inside the data directory.
const FileName = "label_config.yaml"

// Document is the on-disk configuration. Every field is required to be
// present and valid; there are no per-access fallbacks.
type Document struct {
	YearMin int `yaml:"year_min" json:"year_min" validate:"required"`
	YearMax int `yaml:"year_max" json:"year_max" validate:"required,gtfield=YearMin"`

	FontSizeHeader    float64 `yaml:"font_size_header" json:"font_size_header" validate:"gt=0"`
	FontSizeSubheader float64 `yaml:"font_size_subheader" json:"font_size_subheader" validate:"gt=0"`
	FontSizeBody      float64 `yaml:"font_size_body" json:"font_size_body" validate:"gt=0"`

	PageMarginLeftMM  float64 `yaml:"page_margin_l_mm" json:"page_margin_l_mm" validate:"gte=0"`
	PageMarginRightMM float64 `yaml:"page_margin_r_mm" json:"page_margin_r_mm" validate:"gte=0"`
	PageMarginTopMM   float64 `yaml:"page_margin_t_mm" json:"page_margin_t_mm" validate:"gte=0"`
	GutterMM          float64 `yaml:"gutter_x_mm" json:"gutter_x_mm" validate:"gte=0"`

	TopBarHeightMM    float64 `yaml:"top_bar_height_mm" json:"top_bar_height_mm" validate:"gt=0"`
	PaddingMM         float64 `yaml:"padding_mm" json:"padding_mm" validate:"gte=0"`
	EmergencyBorderMM float64 `yaml:"emergency_border_mm" json:"emergency_border_mm" validate:"gte=0"`
	EmergencyText     string  `yaml:"emergency_text" json:"emergency_text"`

	TextMeasure string `yaml:"text_measure" json:"text_measure" validate:"omitempty,oneof=glyph heuristic"`
	ShowQRCode  bool   `yaml:"show_qr_code" json:"show_qr_code"`

	Formats    map[string]FormatSize   `yaml:"formats" json:"formats" validate:"required,min=1,dive,keys,oneof=narrow medium wide extra,endkeys"`
	Categories map[string]CategorySpec `yaml:"categories" json:"categories" validate:"required,min=1,dive,keys,notblank,endkeys"`
}

// FormatSize is the size of one label format.
type FormatSize struct {
	WidthMM  float64 `yaml:"width_mm" json:"width_mm" validate:"gt=0"`
	HeightMM float64 `yaml:"height_mm" json:"height_mm" validate:"gt=0"`
}

// CategorySpec configures one category.
type CategorySpec struct {
	BaseColor string `yaml:"base_color" json:"base_color" validate:"required,hexcolor"`
	ShortCode string `yaml:"short_code,omitempty" json:"short_code,omitempty" validate:"omitempty,max=8"`
}

// Default returns the configuration written on first start.
func Default() *Document {
	return &Document{
		YearMin:           1990,
		YearMax:           2030,
		FontSizeHeader:    14,
		FontSizeSubheader: 9,
		FontSizeBody:      9,
		PageMarginLeftMM:  10,
		PageMarginRightMM: 10,
		PageMarginTopMM:   6,
		GutterMM:          3,
		TopBarHeightMM:    30,
		PaddingMM:         3,
		EmergencyBorderMM: 2,
		EmergencyText:     "IN CASE OF EMERGENCY:\nTake this binder when leaving due to fire or flood!",
		TextMeasure:       string(label.MeasureGlyph),
		ShowQRCode:        true,
		Formats: map[string]FormatSize{
			"narrow": {WidthMM: 38, HeightMM: 285},
			"medium": {WidthMM: 52, HeightMM: 285},
			"wide":   {WidthMM: 61, HeightMM: 285},
			"extra":  {WidthMM: 80, HeightMM: 285},
		},
		Categories: map[string]CategorySpec{
			"Finance":               {BaseColor: "#2E7D32", ShortCode: "FIN"},
			"Insurance":             {BaseColor: "#1565C0", ShortCode: "INS"},
			label.EmergencyCategory: {BaseColor: "#C62828", ShortCode: "ICE"},
			"Projects":              {BaseColor: "#F57C00", ShortCode: "PRJ"},
			"Medical":               {BaseColor: "#6A1B9A", ShortCode: "MED"},
			"Legal":                 {BaseColor: "#455A64", ShortCode: "LEG"},
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate checks the document and returns a *label.Error with
// CodeConfiguration listing every offending key.
func (d *Document) Validate() error {
	details := make(map[string]string)

	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &label.Error{Code: label.CodeConfiguration, Message: err.Error()}
		}
		for _, fe := range verrs {
			details[fieldPath(fe)] = friendlyMessage(fe)
		}
	}

	for name, size := range d.Formats {
		if size.WidthMM-2*d.PaddingMM <= 0 {
			details["formats."+name+".width_mm"] = fmt.Sprintf("must exceed twice padding_mm (%g)", d.PaddingMM)
		}
	}

	if len(details) == 0 {
		return nil
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &label.Error{
		Code:    label.CodeConfiguration,
		Field:   keys[0],
		Message: details[keys[0]],
		Details: details,
	}
}

// fieldPath turns "Document.categories[Finance].base_color" into
// "categories.Finance.base_color".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	ns = strings.NewReplacer("[", ".", "]", "").Replace(ns)
	return ns
}

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gtfield":
		return "must be greater than year_min"
	case "min":
		return "must have at least " + fe.Param() + " entry"
	case "max":
		return "must not exceed " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "hexcolor":
		return "must be a hex colour like #2E7D32"
	default:
		return "is invalid"
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	c.Formats = maps.Clone(d.Formats)
	c.Categories = maps.Clone(d.Categories)
	return &c
}

// PutCategory adds or replaces a category.
func (d *Document) PutCategory(name string, spec CategorySpec) {
	if d.Categories == nil {
		d.Categories = make(map[string]CategorySpec)
	}
	d.Categories[name] = spec
}

// DeleteCategory removes a category and reports whether it existed.
func (d *Document) DeleteCategory(name string) bool {
	if _, ok := d.Categories[name]; !ok {
		return false
	}
	delete(d.Categories, name)
	return true
}

// CategoryNames returns the configured category names in sorted order.
func (d *Document) CategoryNames() []string {
	names := make([]string, 0, len(d.Categories))
	for n := range d.Categories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LabelConfig converts a validated document into the value the label
// package derives from.
func (d *Document) LabelConfig() (label.Config, error) {
	cfg := label.Config{
		Style: label.Style{
			YearMin:           d.YearMin,
			YearMax:           d.YearMax,
			FontSizeHeader:    d.FontSizeHeader,
			FontSizeSubheader: d.FontSizeSubheader,
			FontSizeBody:      d.FontSizeBody,
			PageMarginLeftMM:  d.PageMarginLeftMM,
			PageMarginRightMM: d.PageMarginRightMM,
			PageMarginTopMM:   d.PageMarginTopMM,
			GutterMM:          d.GutterMM,
			TopBarHeightMM:    d.TopBarHeightMM,
			PaddingMM:         d.PaddingMM,
			EmergencyBorderMM: d.EmergencyBorderMM,
			EmergencyText:     d.EmergencyText,
			TextMeasure:       label.MeasureMode(d.TextMeasure),
			ShowQRCode:        d.ShowQRCode,
		},
		Formats:    make(label.FormatTable, len(d.Formats)),
		Categories: make(map[string]label.Category, len(d.Categories)),
	}
	for name, size := range d.Formats {
		cfg.Formats[label.Format(name)] = label.Dimensions{WidthMM: size.WidthMM, HeightMM: size.HeightMM}
	}
	for name, spec := range d.Categories {
		c, err := label.ParseHex(spec.BaseColor)
		if err != nil {
			return label.Config{}, fmt.Errorf("category %q: %w", name, err)
		}
		cfg.Categories[name] = label.Category{Name: name, BaseColor: c, ShortCode: spec.ShortCode}
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &label.Error{Code: label.CodeConfiguration, Message: "parse yaml: " + err.Error()}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads and validates the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	return doc, nil
}

// Save validates doc and writes it to path atomically.
func Save(path string, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return writeFileAtomic(path, data)
}

// EnsureFile writes the default document to path if no file exists and
// reports whether it did.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create settings dir: %w", err)
	}
	if err := Save(path, Default()); err != nil {
		return false, err
	}
	return true, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
