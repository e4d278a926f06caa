package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/formhub-backend/internal/intake/prompt"
	"github.com/yungbote/formhub-backend/internal/platform/envutil"
)

const defaultPath = "/generate-story"

type Options struct {
	BaseURL string
	// Path defaults to /generate-story; deployments behind Netlify use /.netlify/functions/generate-story.
	Path string

	Timeout    time.Duration
	MaxRetries int

	HTTPClient *http.Client
}

// Client calls a running story proxy the same way the form site does.
type Client struct {
	baseURL    string
	path       string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = defaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		baseURL:    baseURL,
		path:       path,
		timeout:    timeout,
		maxRetries: maxRetries,
		httpClient: hc,
	}, nil
}

func NewFromEnv() (*Client, error) {
	return New(Options{
		BaseURL:    envutil.String("FORMHUB_BASE_URL", "http://localhost:8080"),
		Path:       envutil.String("FORMHUB_STORY_PATH", ""),
		Timeout:    envutil.Duration("FORMHUB_CLIENT_TIMEOUT", 60*time.Second),
		MaxRetries: envutil.Int("FORMHUB_CLIENT_MAX_RETRIES", 0),
	})
}

func (c *Client) BaseURL() string { return c.baseURL }

// GenerateStory posts {"formData": answers} and returns the story text. Server-side
// failures come back as *HTTPError carrying the server's "error" string.
func (c *Client) GenerateStory(ctx context.Context, answers prompt.Answers) (string, error) {
	if answers == nil {
		answers = prompt.Answers{}
	}
	req := generateStoryRequest{FormData: answers}

	var resp generateStoryResponse
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return "", err
	}
	return resp.Story, nil
}

func (c *Client) doJSON(ctx context.Context, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx2.Err() != nil {
			return ctx2.Err()
		}

		req, err := http.NewRequestWithContext(ctx2, http.MethodPost, c.baseURL+c.path, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				return readErr
			}
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return json.Unmarshal(raw, out)
			}
			lastErr = parseHTTPError(resp.StatusCode, raw)
			if !retryable(resp.StatusCode) {
				return lastErr
			}
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx2.Done():
				return ctx2.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return lastErr
}

// retryable excludes 500: the proxy uses it for upstream rejections that a retry would repeat.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
