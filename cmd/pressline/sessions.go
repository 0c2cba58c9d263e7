package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aretw0/pressline/internal/cli"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect store-backed sessions",
}

var sessionsLsCmd = &cobra.Command{
	Use:   "ls <actor-id>",
	Short: "List the sessions of an actor, most recent first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer app.Close()

		summaries := app.Gateway.FetchUserSessions(cmd.Context(), args[0])
		out := cmd.OutOrStdout()
		if len(summaries) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SESSION\tFLOW\tTITLE\tSTATUS\tUPDATED")
		for _, s := range summaries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.FlowID, s.Title, s.Status, s.UpdatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

var sessionsInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the stored state and transcript of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer app.Close()

		sess, ok := app.Gateway.FetchSession(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("session %q not found", args[0])
		}
		view := struct {
			Session  any `json:"session"`
			Messages any `json:"messages"`
		}{sess, app.Gateway.FetchSessionMessages(cmd.Context(), sess.ID)}

		// Pretty print JSON
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsLsCmd)
	sessionsCmd.AddCommand(sessionsInspectCmd)
}
