package main

import (
	"fmt"

	"github.com/aretw0/pressline/internal/cli"
	"github.com/aretw0/pressline/internal/presentation/graph"
	"github.com/aretw0/pressline/internal/seed"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <flow-id>",
	Short: "Export a flow as a Mermaid diagram",
	Long: `Reads the seed flows and prints a Mermaid diagram (graph TD) of one flow.
With --session the path that session took is highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := cfg.Flows.Seed
		if v, _ := cmd.Flags().GetString("seed"); v != "" {
			path = v
		}
		graphs, err := seed.Load(path)
		if err != nil {
			return err
		}
		g, ok := seed.Find(graphs, args[0])
		if !ok {
			return fmt.Errorf("flow %q not found in seed", args[0])
		}

		var overlay *graph.Overlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			app, err := buildApp(cmd, cli.BuildOptions{})
			if err != nil {
				return err
			}
			defer app.Close()

			current := ""
			if node, ok := app.Gateway.FetchCurrentNode(cmd.Context(), sessionID); ok {
				current = node.ID
			}
			overlay = graph.OverlayFromMessages(app.Gateway.FetchSessionMessages(cmd.Context(), sessionID), current)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g.Nodes, g.Options, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("seed", "", "Seed file (overrides flows.seed)")
	graphCmd.Flags().String("session", "", "Highlight the path of this session")
}
