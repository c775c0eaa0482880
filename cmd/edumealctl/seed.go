package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edumeal/edumeal-api/internal/pkg/clock"
	"github.com/edumeal/edumeal-api/internal/pkg/database"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo roster into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer database.ClosePostgres(db)

			seeded, err := database.SeedDemo(cmd.Context(), db, clock.New(cfg.Location()).Now())
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "Students already present, nothing seeded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Demo data loaded")
			return nil
		},
	}
}
