package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/formhub-backend/internal/intake/app"
	"github.com/yungbote/formhub-backend/internal/intake/client"
)

// newApp is swapped in tests.
var newApp = app.New

func newStoryCmd() *cobra.Command {
	var (
		file       string
		server     string
		path       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "story",
		Short: "Generate a clinical history, through a running server or in-process",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			answers, err := readAnswers(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			c, err := remoteClient(server, path)
			if err != nil {
				return err
			}
			if c != nil {
				text, err := c.GenerateStory(ctx, answers)
				if err != nil {
					return fmt.Errorf("story from %s: %w", c.BaseURL(), err)
				}
				return writeLine(cmd.OutOrStdout(), text)
			}

			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			text, err := a.Story.Generate(ctx, answers)
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), text)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Answers JSON file (default stdin)")
	cmd.Flags().StringVar(&server, "server", "", "Base URL of a running proxy; empty falls back to FORMHUB_BASE_URL, then in-process")
	cmd.Flags().StringVar(&path, "path", "", "Proxy path (default /generate-story)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	return cmd
}

// remoteClient returns nil when neither --server nor FORMHUB_BASE_URL names a proxy.
func remoteClient(server, path string) (*client.Client, error) {
	if server != "" {
		return client.New(client.Options{BaseURL: server, Path: path})
	}
	if os.Getenv("FORMHUB_BASE_URL") == "" {
		return nil, nil
	}
	c, err := client.NewFromEnv()
	if err != nil {
		return nil, err
	}
	if path != "" {
		return client.New(client.Options{BaseURL: c.BaseURL(), Path: path})
	}
	return c, nil
}
