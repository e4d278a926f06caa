package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/formhub-backend/internal/intake/config"
	"github.com/yungbote/formhub-backend/internal/intake/engine"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		Type:    config.EngineGeminiHTTP,
		BaseURL: "http://upstream/v1beta",
		APIKey:  "test-key",
		Timeout: config.Duration{Duration: 2 * time.Second},
	}
}

func TestGenerateTextRequestShape(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Method != http.MethodPost {
				t.Fatalf("method=%s", req.Method)
			}
			if req.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			if got := req.URL.Query().Get("key"); got != "test-key" {
				t.Fatalf("key=%q", got)
			}

			var in generateRequest
			if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
				t.Fatalf("decode req: %v", err)
			}
			if len(in.Contents) != 1 || len(in.Contents[0].Parts) != 1 {
				t.Fatalf("expected exactly one message part: %+v", in.Contents)
			}
			if in.Contents[0].Role != "user" || in.Contents[0].Parts[0].Text != "the prompt" {
				t.Fatalf("unexpected content: %+v", in.Contents[0])
			}
			if in.GenerationConfig.Temperature != 0.3 {
				t.Fatalf("temperature=%v", in.GenerationConfig.Temperature)
			}

			return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"This is "},{"thought":true},{"text":"a patient."}]}},{"content":{"parts":[{"text":"ignored"}]}}]}`), nil
		}),
	}

	e, err := NewWithHTTPClient(testConfig(), client)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}

	out, err := e.GenerateText(context.Background(), "gemini-2.5-flash", "the prompt", engine.GenerateOptions{Temperature: 0.3})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != "This is a patient." {
		t.Fatalf("out=%q", out)
	}
}

func TestGenerateTextEmptyCandidates(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"candidates":[]}`), nil
		}),
	}
	e, _ := NewWithHTTPClient(testConfig(), client)

	out, err := e.GenerateText(context.Background(), "m", "p", engine.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != "" {
		t.Fatalf("out=%q", out)
	}
}

func TestGenerateTextUpstreamErrorMessage(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`), nil
		}),
	}
	e, _ := NewWithHTTPClient(testConfig(), client)

	_, err := e.GenerateText(context.Background(), "m", "p", engine.GenerateOptions{})

	var upErr *engine.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %T %v", err, err)
	}
	if upErr.StatusCode != http.StatusTooManyRequests || upErr.Message != "quota exceeded" {
		t.Fatalf("unexpected error: %+v", upErr)
	}
}

func TestGenerateTextUpstreamErrorWithoutMessage(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusBadGateway, `<html>bad gateway</html>`), nil
		}),
	}
	e, _ := NewWithHTTPClient(testConfig(), client)

	_, err := e.GenerateText(context.Background(), "m", "p", engine.GenerateOptions{})
	if err == nil || err.Error() != defaultFailureMessage {
		t.Fatalf("err=%v", err)
	}
}

func TestGenerateTextMissingCredentialMakesNoCall(t *testing.T) {
	var calls int32
	client := &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			atomic.AddInt32(&calls, 1)
			return jsonResponse(http.StatusOK, `{}`), nil
		}),
	}
	cfg := testConfig()
	cfg.APIKey = "  "
	e, _ := NewWithHTTPClient(cfg, client)

	if err := e.Ready(); !errors.Is(err, engine.ErrMissingCredential) {
		t.Fatalf("Ready=%v", err)
	}
	_, err := e.GenerateText(context.Background(), "m", "p", engine.GenerateOptions{})
	if !errors.Is(err, engine.ErrMissingCredential) {
		t.Fatalf("err=%v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("calls=%d", got)
	}
}

func TestGenerateTextTimeoutHidesCredential(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig()
	cfg.BaseURL = srv.URL + "/v1beta"
	cfg.Timeout = config.Duration{Duration: 50 * time.Millisecond}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = e.GenerateText(context.Background(), "m", "p", engine.GenerateOptions{})

	var upErr *engine.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %T %v", err, err)
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Fatalf("credential leaked in error: %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGenerateTextSkipsThoughtParts(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"planning the answer","thought":true},{"text":"This is a patient."}]}}]}`), nil
		}),
	}
	e, _ := NewWithHTTPClient(testConfig(), client)

	out, err := e.GenerateText(context.Background(), "m", "p", engine.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != "This is a patient." {
		t.Fatalf("out=%q", out)
	}
}
