package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/formhub-backend/internal/intake/engine"
)

// Engine is an offline stand-in for local development. It is always ready and turns the
// "- key: value" lines of the prompt into a fixed-format narrative.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Ready() error { return nil }

func (e *Engine) GenerateText(ctx context.Context, model string, prompt string, opts engine.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_ = opts

	facts := answerLines(prompt)
	if len(facts) == 0 {
		return "", nil
	}
	return fmt.Sprintf("The patient reported the following (%s): %s.", model, strings.Join(facts, "; ")), nil
}

func answerLines(prompt string) []string {
	var out []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		k, v, ok := strings.Cut(strings.TrimPrefix(line, "- "), ": ")
		if !ok {
			continue
		}
		out = append(out, k+" "+v)
	}
	return out
}
