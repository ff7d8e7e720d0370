// Package cli implements liftctl, a command-line client for a running
// LiftLog server.
package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/claude/liftlog/internal/mcp"
)

// App holds what commands need. Backend is built from the --url and
// --api-key flags unless already set.
type App struct {
	Backend mcp.Backend
	Version string
	Log     *slog.Logger
}

// NewRootCmd creates the top-level "liftctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var serverURL, apiKey string

	root := &cobra.Command{
		Use:           "liftctl",
		Short:         "Drive a LiftLog workout from the terminal",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Log == nil {
				app.Log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			}
			if app.Backend != nil {
				return nil
			}
			if serverURL == "" {
				return errors.New("--url is required (or set LIFTLOG_URL)")
			}
			app.Backend = mcp.NewHTTPClient(serverURL, apiKey)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&serverURL, "url", os.Getenv("LIFTLOG_URL"), "LiftLog server URL (e.g. https://liftlog.tail1234.ts.net)")
	root.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("LIFTLOG_API_KEY"), "API key, when the server requires one")

	root.AddCommand(
		newStateCmd(app),
		newStartCmd(app),
		newSetCmd(app),
		newSkipCmd(app),
		newEndCmd(app),
		newResetCmd(app),
		newElapsedCmd(app),
		newExercisesCmd(app),
		newMCPCmd(app),
	)

	return root
}
