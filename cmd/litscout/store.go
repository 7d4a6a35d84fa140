// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litscout/internal/candidates"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the candidate store (ingest, export, stats)",
	Long: `Store manages the local SQLite candidate store: papers with their
embeddings, concept tags and bylines, plus concept, author and venue records.`,
}

var storeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest snapshot files into the candidate store",
	Long: `Ingest reads normalized YAML or JSON snapshot files from the snapshots
directory and upserts their records. Files unchanged since the last run are
skipped. A file with an invalid record is rejected as a whole.`,
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d paper(s) written from %d file(s)\n", summary.Papers, summary.Indexed+summary.Updated)
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed ingest", summary.Failed)
	}
	return nil
}

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the candidate store to YAML or JSON",
	RunE:  runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := store.Export(context.Background(), w, format); err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
	}
	return nil
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		c, err := store.Counts(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "papers:   %d\nconcepts: %d\nauthors:  %d\nvenues:   %d\n",
			c.Papers, c.Concepts, c.Authors, c.Venues)
		return nil
	},
}

func openStore() (*candidates.Store, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return candidates.NewStore(cfg.Store)
}

func init() {
	storeExportCmd.Flags().String("format", candidates.FormatYAML, "export format: yaml or json")
	storeExportCmd.Flags().String("out", "", "output file (default: stdout)")

	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeStatsCmd)

	rootCmd.AddCommand(storeCmd)
}
