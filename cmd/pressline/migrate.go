package main

import (
	"fmt"

	"github.com/aretw0/pressline/internal/cli"
	"github.com/aretw0/pressline/internal/seed"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and load the seed flows",
	Long:  `Runs the schema migration against the configured store, then upserts the flows from the seed file (or the builtin seed).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd, cli.BuildOptions{Migrate: true})
		if err != nil {
			return err
		}
		defer app.Close()

		path := app.Config.Flows.Seed
		if v, _ := cmd.Flags().GetString("seed"); v != "" {
			path = v
		}
		graphs, err := seed.Load(path)
		if err != nil {
			return err
		}
		if err := seed.Apply(cmd.Context(), app.Store, graphs, app.Logger); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s and seeded %d flow(s)\n", app.Config.Store.Driver, len(graphs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().String("seed", "", "Seed file (overrides flows.seed)")
}
