package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/pressline"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pressline",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pressline version %s\n", strings.TrimSpace(pressline.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
