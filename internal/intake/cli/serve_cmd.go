package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/formhub-backend/internal/intake/app"
	"github.com/yungbote/formhub-backend/internal/platform/shutdown"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the story proxy HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := shutdown.NotifyContext(context.Background())
			defer stop()

			a, err := app.New(ctx, configPath)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	return cmd
}
