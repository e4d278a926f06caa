package engine

import "context"

type GenerateOptions struct {
	Temperature float64
}

// Engine is an upstream generative-language backend. Implementations make at most one
// outbound call per GenerateText and keep no per-request state.
type Engine interface {
	// Ready reports whether the engine can serve requests; ErrMissingCredential when the
	// deployment has no credential configured.
	Ready() error
	GenerateText(ctx context.Context, model string, prompt string, opts GenerateOptions) (string, error)
}
