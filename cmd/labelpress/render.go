package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"labelpress/internal/label"
	"labelpress/internal/models"
	"labelpress/internal/settings"
	"labelpress/internal/sheet"
	"labelpress/internal/store"
)

var renderOpts struct {
	labelsPath string
	configPath string
	output     string
	html       bool
	only       []string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a label file to PDF without starting the server",
	Long: `Reads labels from a CSV file and the style from a YAML settings file and
writes the label sheet as PDF, or as HTML with --html. Use -o - to write to
standard output.`,
	Example: `  labelpress render -o labels.pdf
  labelpress render --labels archive.csv --config style.yaml --only FIN-2012,ICE-2020 -o out.pdf
  labelpress render --html -o - > sheet.html`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderOpts.labelsPath, "labels", "", "Label CSV file (default: <data-dir>/binder_labels.csv)")
	f.StringVar(&renderOpts.configPath, "config", "", "Settings YAML file (default: <data-dir>/label_config.yaml)")
	f.StringVarP(&renderOpts.output, "output", "o", "binder_labels.pdf", "Output file, - for stdout")
	f.BoolVar(&renderOpts.html, "html", false, "Write the sheet HTML instead of PDF")
	f.StringSliceVar(&renderOpts.only, "only", nil, "Only render these label IDs, e.g. FIN-2012")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	labelsPath := renderOpts.labelsPath
	if labelsPath == "" {
		labelsPath = cfg.LabelsPath()
	}
	configPath := renderOpts.configPath
	if configPath == "" {
		configPath = cfg.SettingsPath()
	}

	doc, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	lcfg, err := doc.LabelConfig()
	if err != nil {
		return err
	}
	measurer, err := label.MeasurerFor(lcfg.Style.TextMeasure)
	if err != nil {
		return err
	}

	items, err := readLabelFile(labelsPath)
	if err != nil {
		return err
	}
	items, err = filterLabels(items, renderOpts.only)
	if err != nil {
		return err
	}

	records := make([]label.Record, len(items))
	for i := range items {
		records[i] = items[i].ToRecord()
	}

	var html bytes.Buffer
	if err := sheet.Render(&html, records, label.NewDeriver(measurer), lcfg); err != nil {
		return err
	}

	out := html.Bytes()
	if !renderOpts.html {
		path := cfg.ChromePath
		if path == "" {
			path = sheet.FindChrome()
		}
		if path == "" {
			return fmt.Errorf("no Chrome or Chromium found; set CHROME_PATH or use --html")
		}
		printer := sheet.NewChromePrinter(sheet.PrinterOptions{
			ExecPath:  path,
			NoSandbox: cfg.ChromeNoSandbox,
			Timeout:   cfg.PDFTimeout,
		})
		if out, err = printer.Print(cmd.Context(), html.Bytes()); err != nil {
			return err
		}
	}

	if err := writeOutput(cmd.OutOrStdout(), renderOpts.output, out); err != nil {
		return err
	}
	slog.Info("labels rendered", "labels", len(records), "output", renderOpts.output, "bytes", len(out))
	return nil
}

// readLabelFile reads a CSV label file without modifying it.
func readLabelFile(path string) ([]models.Label, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	items, _, err := store.ReadLabels(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// filterLabels keeps the labels whose unique ID is listed, in file order.
// An empty list keeps everything.
func filterLabels(items []models.Label, only []string) ([]models.Label, error) {
	if len(only) == 0 {
		return items, nil
	}
	want := make(map[string]bool, len(only))
	for _, id := range only {
		want[strings.TrimSpace(id)] = true
	}

	var out []models.Label
	found := make(map[string]bool, len(want))
	for _, l := range items {
		if id := l.UniqueID(); want[id] {
			out = append(out, l)
			found[id] = true
		}
	}
	maps.DeleteFunc(want, func(id string, _ bool) bool { return found[id] })
	if len(want) > 0 {
		missing := slices.Sorted(maps.Keys(want))
		return nil, fmt.Errorf("labels not found: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
