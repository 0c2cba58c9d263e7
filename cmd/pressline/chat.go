package main

import (
	"os"
	"strings"

	"github.com/aretw0/pressline"
	"github.com/aretw0/pressline/internal/cli"
	"github.com/aretw0/pressline/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a flow in the terminal",
	Long: `Starts an interactive conversation. Type a quick reply label or its number.
Use /new <flow>, /list and /switch <n> to juggle conversations, /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flowID, _ := cmd.Flags().GetString("flow")
		actorID, _ := cmd.Flags().GetString("actor")
		plain, _ := cmd.Flags().GetBool("plain")
		rawVars, _ := cmd.Flags().GetStringSlice("var")

		app, err := buildApp(cmd, cli.BuildOptions{Migrate: true})
		if err != nil {
			return err
		}
		defer app.Close()

		rich := !plain && term.IsTerminal(int(os.Stdout.Fd()))
		if rich {
			tui.PrintBanner(cmd.OutOrStdout(), pressline.Version)
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		chat := cli.NewChat(app.Actions, actorID, cli.ChatOptions{
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
			Rich:      rich,
			Sanitizer: app.Sanitizer,
			Vars:      parseVars(rawVars),
		})
		return chat.Run(sc, flowID)
	},
}

// parseVars turns key=value pairs into interpolation variables.
func parseVars(pairs []string) map[string]any {
	vars := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			continue
		}
		vars[strings.TrimSpace(k)] = v
	}
	return vars
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("flow", "f", "about", "Flow to start")
	chatCmd.Flags().String("actor", "", "Actor ID for store-backed sessions")
	chatCmd.Flags().Bool("plain", false, "Disable rich rendering")
	chatCmd.Flags().StringSlice("var", nil, "Interpolation variable as key=value (repeatable)")
}
