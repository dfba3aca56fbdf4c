package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.DB.Driver == config.DriverMemory {
				return fmt.Errorf("nothing to migrate for the %s driver", cfg.DB.Driver)
			}
			// openRepository создаёт схему
			repo, err := openRepository(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer repo.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", cfg.DB.Driver)
			return nil
		},
	}
}
