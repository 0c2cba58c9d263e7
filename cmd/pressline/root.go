package main

import (
	"fmt"
	"os"

	"github.com/aretw0/pressline/internal/cli"
	"github.com/aretw0/pressline/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pressline",
	Short: "Pressline is the conversation engine of a print-shop chat assistant",
	Long: `Pressline drives guided conversations over store-backed and scripted flows.
It serves them over HTTP, runs them in the terminal, and manages the dialog store.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a pressline.yaml config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level")
}

// loadConfig reads the --config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

// buildApp loads configuration and assembles the application.
func buildApp(cmd *cobra.Command, opts cli.BuildOptions) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.Build(cmd.Context(), cfg, opts)
}
