package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/formhub-backend/internal/intake/config"
	"github.com/yungbote/formhub-backend/internal/intake/engine"
	"github.com/yungbote/formhub-backend/internal/intake/engine/gemini"
	"github.com/yungbote/formhub-backend/internal/intake/engine/genaisdk"
	"github.com/yungbote/formhub-backend/internal/intake/engine/mock"
)

// Provider is the engine selected by configuration plus the upstream model it targets.
type Provider struct {
	Type   string
	Model  string
	Engine engine.Engine
}

func New(ctx context.Context, cfg config.EngineConfig) (*Provider, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typ == "" {
		typ = config.EngineGeminiHTTP
	}

	var eng engine.Engine
	switch typ {
	case config.EngineMock:
		eng = mock.New()
	case config.EngineGeminiHTTP, "gemini":
		e, err := gemini.New(cfg)
		if err != nil {
			return nil, err
		}
		eng = e
	case config.EngineGenAI, "genai_sdk":
		e, err := genaisdk.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		eng = e
	default:
		return nil, fmt.Errorf("unsupported engine type %q", cfg.Type)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = config.DefaultModel
	}

	return &Provider{
		Type:   typ,
		Model:  model,
		Engine: engine.Throttle(eng, cfg.RequestsPerMinute),
	}, nil
}
