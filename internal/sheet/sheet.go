// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sheet

import (
	"bytes"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"labelpress/internal/label"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrNoLabels is returned when there is nothing to print.
var ErrNoLabels = errors.New("no labels to print")

// Options control sheet rendering.
type Options struct {
	Title      string
	ShowQRCode bool
}

var sheetTemplate = sync.OnceValues(func() (*template.Template, error) {
	return template.New("sheet.html").Funcs(funcMap).ParseFS(templateFS, "templates/sheet.html")
})

var fontURIs = sync.OnceValue(func() map[string]template.URL {
	enc := func(ttf []byte) template.URL {
		return template.URL("data:font/ttf;base64," + base64.StdEncoding.EncodeToString(ttf))
	}
	return map[string]template.URL{
		"regular": enc(goregular.TTF),
		"bold":    enc(gobold.TTF),
	}
})

var funcMap = template.FuncMap{
	"mm":  mm,
	"pt":  pt,
	"hex": func(c label.RGB) template.CSS { return template.CSS(c.Hex()) },
	"box": func(p Placement) template.CSS {
		return template.CSS(fmt.Sprintf("left:%s;top:%s;width:%s;height:%s",
			mm(p.XMM), mm(p.YMM), mm(p.Label.WidthMM), mm(p.Label.HeightMM)))
	},
	"qr":        qrDataURI,
	"borderWidth": func(rc *label.RenderContext) template.CSS {
		return mm(rc.EmergencyBorderMM / 3)
	},
	"qrSize": qrSizeMM,
}

func mm(v float64) template.CSS {
	return template.CSS(strconv.FormatFloat(v, 'f', 2, 64) + "mm")
}

func pt(v float64) template.CSS {
	return template.CSS(strconv.FormatFloat(v, 'f', 2, 64) + "pt")
}

// qrSizeMM is the edge length of the QR code: the content width, capped
// at 18 mm.
func qrSizeMM(rc *label.RenderContext) template.CSS {
	return mm(min(rc.WidthMM-2*rc.PaddingMM, 18))
}

// qrDataURI encodes content as a PNG QR code data URI.
func qrDataURI(content string) (template.URL, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}

type sheetData struct {
	Title      string
	Fonts      map[string]template.URL
	Pages      []Page
	ShowQRCode bool
	PageWidth  template.CSS
	PageHeight template.CSS
}

// Compose writes the HTML document for pages to w.
func Compose(w io.Writer, pages []Page, opts Options) error {
	tmpl, err := sheetTemplate()
	if err != nil {
		return fmt.Errorf("parse sheet template: %w", err)
	}
	if opts.Title == "" {
		opts.Title = "Binder labels"
	}

	// Render into a buffer so a template error never leaves half a page
	// in w.
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, sheetData{
		Title:      opts.Title,
		Fonts:      fontURIs(),
		Pages:      pages,
		ShowQRCode: opts.ShowQRCode,
		PageWidth:  mm(PageWidthMM),
		PageHeight: mm(PageHeightMM),
	})
	if err != nil {
		return fmt.Errorf("render sheet: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Render derives every record with d under cfg, paginates the result and
// writes the sheet HTML to w. The first failing record aborts rendering;
// the returned error keeps the *label.Error so callers can classify it.
func Render(w io.Writer, records []label.Record, d *label.Deriver, cfg label.Config) error {
	if len(records) == 0 {
		return ErrNoLabels
	}

	contexts := make([]*label.RenderContext, 0, len(records))
	for _, rec := range records {
		rc, err := d.Derive(rec, cfg)
		if err != nil {
			return fmt.Errorf("label %s: %w", describe(rec), err)
		}
		contexts = append(contexts, rc)
	}

	return Compose(w, Paginate(contexts, cfg.Style), Options{ShowQRCode: cfg.Style.ShowQRCode})
}

func describe(rec label.Record) string {
	if strings.TrimSpace(rec.ShortCode) == "" {
		return strconv.Quote(rec.Category)
	}
	return label.UniqueID(rec.ShortCode, rec.StartYear)
}
