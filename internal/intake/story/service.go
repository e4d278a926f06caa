package story

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/formhub-backend/internal/intake/engine"
	"github.com/yungbote/formhub-backend/internal/intake/prompt"
	"github.com/yungbote/formhub-backend/internal/platform/logger"
	"github.com/yungbote/formhub-backend/internal/platform/tracing"
)

const (
	// FallbackStory is returned when the upstream answers successfully with no text.
	FallbackStory = "Unable to generate story."

	Temperature = 0.3

	defaultUpstreamMessage = "Failed to generate content from Gemini"
)

// ErrConfiguration means the deployment cannot serve stories at all (no credential).
var ErrConfiguration = errors.New("server configuration error")

type Service struct {
	log     *logger.Logger
	engine  engine.Engine
	model   string
	builder *prompt.Builder
}

func New(log *logger.Logger, eng engine.Engine, model string, builder *prompt.Builder) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if builder == nil {
		builder = prompt.DefaultBuilder()
	}
	return &Service{
		log:     log.With("service", "story"),
		engine:  eng,
		model:   model,
		builder: builder,
	}
}

// Ready reports ErrConfiguration when the engine has no credential.
func (s *Service) Ready() error {
	if err := s.engine.Ready(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// Generate checks the credential, builds the prompt and makes exactly one upstream call.
// Errors are ErrConfiguration, prompt.ErrEmptyInput or *engine.UpstreamError; neither of
// the first two reaches the upstream.
func (s *Service) Generate(ctx context.Context, answers prompt.Answers) (string, error) {
	if err := s.Ready(); err != nil {
		s.log.Error("story generation unavailable", "error", err)
		return "", err
	}

	p, err := s.builder.Build(answers)
	if err != nil {
		s.log.Info("story request had no usable answers", "answer_count", len(answers), "dropped", p.Dropped)
		return "", err
	}

	ctx, span := tracing.Tracer().Start(ctx, "story.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("gen_ai.request.model", s.model),
		attribute.Int("formhub.answers.kept", p.Kept),
		attribute.Int("formhub.answers.dropped", p.Dropped),
	)

	start := time.Now()
	text, err := s.engine.GenerateText(ctx, s.model, p.Text, engine.GenerateOptions{Temperature: Temperature})
	if err != nil {
		upErr := asUpstream(err)
		span.RecordError(upErr)
		span.SetStatus(codes.Error, upErr.Message)
		s.log.Warn("story generation failed",
			"model", s.model,
			"status", upErr.StatusCode,
			"error", upErr.Message,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return "", upErr
	}

	story := strings.TrimSpace(text)
	if story == "" {
		story = FallbackStory
	}
	s.log.Info("story generated",
		"model", s.model,
		"kept", p.Kept,
		"dropped", p.Dropped,
		"chars", len(story),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return story, nil
}

func asUpstream(err error) *engine.UpstreamError {
	var upErr *engine.UpstreamError
	if errors.As(err, &upErr) {
		if upErr.Message != "" {
			return upErr
		}
		return &engine.UpstreamError{StatusCode: upErr.StatusCode, Message: defaultUpstreamMessage, Err: upErr.Err}
	}
	return &engine.UpstreamError{Message: err.Error(), Err: err}
}
