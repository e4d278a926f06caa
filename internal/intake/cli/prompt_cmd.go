package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/formhub-backend/internal/intake/config"
	"github.com/yungbote/formhub-backend/internal/intake/prompt"
)

func newPromptCmd() *cobra.Command {
	var (
		file       string
		configPath string
		entries    bool
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt that would be sent upstream for a set of answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			answers, err := readAnswers(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			b := prompt.NewBuilder(cfg.Prompt.Sentinels, cfg.Prompt.ReservedPrefix)
			if entries {
				return writeLine(cmd.OutOrStdout(), prompt.Serialize(b.Filter(answers)))
			}
			p, err := b.Build(answers)
			if errors.Is(err, prompt.ErrEmptyInput) {
				return fmt.Errorf("%w (%d answers, all dropped)", err, len(answers))
			}
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), p.Text)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Answers JSON file (default stdin)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	cmd.Flags().BoolVar(&entries, "entries", false, "Print only the filtered answer lines")
	return cmd
}
