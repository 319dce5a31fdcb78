package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"labelpress/internal/config"
	"labelpress/internal/settings"
	"labelpress/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings and sample labels into the data directory",
	Long: `Creates label_config.yaml with the default style and, for the CSV backend,
binder_labels.csv with a few sample labels. Existing files are left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		created, err := settings.EnsureFile(cfg.SettingsPath())
		if err != nil {
			return err
		}
		report(out, cfg.SettingsPath(), created)

		if cfg.Backend != config.BackendCSV {
			fmt.Fprintf(out, "labels are stored in PostgreSQL (%s), sample rows are added on first serve\n", cfg.DBName)
			return nil
		}
		labels := store.NewCSVStore(cfg.LabelsPath())
		created, err = labels.EnsureFile()
		if err != nil {
			return err
		}
		report(out, labels.Path(), created)
		return nil
	},
}

func report(out io.Writer, path string, created bool) {
	if created {
		fmt.Fprintf(out, "created %s\n", path)
		return
	}
	fmt.Fprintf(out, "exists  %s\n", path)
}
