// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// PrinterOptions configure the headless browser used for PDF output.
type PrinterOptions struct {
	// ExecPath is the Chrome or Chromium binary. Empty means search the
	// usual install locations.
	ExecPath string
	// NoSandbox disables the Chrome sandbox, needed when running as root
	// inside a container.
	NoSandbox bool
	// Timeout bounds one print job.
	Timeout time.Duration
}

// ChromePrinter converts sheet HTML to PDF with a headless Chrome.
// A browser process is started per job.
type ChromePrinter struct {
	opts PrinterOptions
}

// chromeNames are the binaries FindChrome tries, in order.
var chromeNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// FindChrome returns the first installed Chrome or Chromium binary, or ""
// when there is none.
func FindChrome() string {
	for _, name := range chromeNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// NewChromePrinter returns a printer with the given options.
func NewChromePrinter(opts PrinterOptions) *ChromePrinter {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &ChromePrinter{opts: opts}
}

func (p *ChromePrinter) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.DisableGPU,
	)
	if p.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.opts.ExecPath))
	}
	if p.opts.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return opts
}

// Print loads html into a blank page and prints it to PDF using the page
// size declared by the document's @page rule.
func (p *ChromePrinter) Print(ctx context.Context, html []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, p.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	var (
		pdf   []byte
		ready bool
	)
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("get frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		// Embedded fonts load asynchronously; printing before they are
		// ready falls back to a different face and breaks the wrapping.
		chromedp.Evaluate(`document.fonts.ready.then(() => true)`, &ready,
			func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
				return ep.WithAwaitPromise(true)
			}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("print to pdf: %w", err)
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp: %w", err)
	}

	slog.Debug("pdf printed", "bytes", len(pdf), "duration", time.Since(start))
	return pdf, nil
}
