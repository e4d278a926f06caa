package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/formhub-backend/internal/intake/app"
	"github.com/yungbote/formhub-backend/internal/intake/prompt"
)

// NewRootCmd creates the top-level "formhub" command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "formhub",
		Short:         "Clinical history generator for form submissions",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newPromptCmd(),
		newStoryCmd(),
	)
	return root
}

// readAnswers accepts either {"formData": {...}} or the bare answer object, from a file
// or from stdin when path is "" or "-".
func readAnswers(in io.Reader, path string) (prompt.Answers, error) {
	var raw []byte
	var err error
	if path == "" || path == "-" {
		raw, err = io.ReadAll(in)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading answers: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var envelope struct {
		FormData *prompt.Answers `json:"formData"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.FormData != nil {
		return *envelope.FormData, nil
	}

	var answers prompt.Answers
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("parsing answers: %w", err)
	}
	return answers, nil
}

func writeLine(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}
