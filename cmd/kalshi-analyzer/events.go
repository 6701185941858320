package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/kalshi-analyzer/internal/models"
)

func newEventsCmd() *cobra.Command {
	var (
		query  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List open football events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputTable && output != outputJSON {
				return fmt.Errorf("unknown output format %q", output)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			batch, err := fetchBatch(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			snapshot := models.NewSnapshot(batch.Source, batch.FetchedAt, batch.Events)
			events := snapshot.Filter(query)

			w := cmd.OutOrStdout()
			if output == outputJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}
			fmt.Fprintf(w, "Source: %s  Fetched: %s\n\n", snapshot.Source, snapshot.FetchedAt.Format("2006-01-02 15:04:05 MST"))
			return renderEvents(w, events)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter on home team, away team or league")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table or json")
	return cmd
}
