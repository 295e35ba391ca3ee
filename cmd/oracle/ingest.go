package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Rebuild the collection from the given documents",
		Long: `Loads, chunks and embeds the given documents and replaces the configured
collection with the result. Paths may be glob patterns; without arguments the
sources listed in the config are used. Missing files are skipped with a warning.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			paths := args
			if len(paths) == 0 {
				paths = a.cfg.Sources
			}
			ing, err := a.ingestor(cmd.Context())
			if err != nil {
				return err
			}
			report, err := ing.Ingest(cmd.Context(), paths)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingested %d document(s) into %q: %d chunk(s).\n", report.Documents, a.cfg.VectorStore.Collection, report.Chunks)
			for _, p := range report.Missing {
				fmt.Fprintf(out, "  skipped (not found or unreadable): %s\n", p)
			}
			for _, p := range report.Empty {
				fmt.Fprintf(out, "  skipped (no text): %s\n", p)
			}
			return nil
		},
	}
}
