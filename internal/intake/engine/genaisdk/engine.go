package genaisdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/formhub-backend/internal/intake/config"
	"github.com/yungbote/formhub-backend/internal/intake/engine"
)

// Engine serves the same contract as the raw HTTP engine through the google.golang.org/genai SDK.
// Without a credential no client is built and every call reports ErrMissingCredential.
type Engine struct {
	client  *genai.Client
	timeout time.Duration
}

func New(ctx context.Context, cfg config.EngineConfig) (*Engine, error) {
	return NewWithHTTPClient(ctx, cfg, nil)
}

func NewWithHTTPClient(ctx context.Context, cfg config.EngineConfig, hc *http.Client) (*Engine, error) {
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	e := &Engine{timeout: timeout}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return e, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if base, version := splitVersion(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base, APIVersion: version}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	e.client = client
	return e, nil
}

func (e *Engine) Ready() error {
	if e.client == nil {
		return engine.ErrMissingCredential
	}
	return nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, prompt string, opts engine.GenerateOptions) (string, error) {
	if err := e.Ready(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	})
	if err != nil {
		return "", upstreamError(err)
	}
	return firstCandidateText(resp), nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func upstreamError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = "Failed to generate content from Gemini"
		}
		return &engine.UpstreamError{StatusCode: apiErr.Code, Message: msg, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &engine.UpstreamError{StatusCode: apiErrPtr.Code, Message: strings.TrimSpace(apiErrPtr.Message), Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &engine.UpstreamError{Message: "Gemini request timed out", Err: err}
	}
	return &engine.UpstreamError{Message: "Gemini request failed", Err: err}
}

// splitVersion turns ".../v1beta" into the SDK's separate base URL and API version.
func splitVersion(baseURL string) (string, string) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return "", ""
	}
	idx := strings.LastIndex(baseURL, "/")
	if idx == -1 {
		return baseURL + "/", ""
	}
	last := baseURL[idx+1:]
	if strings.HasPrefix(last, "v1") {
		return baseURL[:idx+1], last
	}
	return baseURL + "/", ""
}
