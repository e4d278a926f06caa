package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/formhub-backend/internal/intake/config"
	"github.com/yungbote/formhub-backend/internal/intake/engine/gemini"
	"github.com/yungbote/formhub-backend/internal/intake/prompt"
	"github.com/yungbote/formhub-backend/internal/intake/story"
	"github.com/yungbote/formhub-backend/internal/platform/ratelimit"
)

type upstream struct {
	srv   *httptest.Server
	calls int32

	mu       sync.Mutex
	lastKey  string
	lastBody map[string]any
}

// newUpstream fakes generativelanguage: it answers every call with status and body.
func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.calls, 1)
		raw, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.lastKey = r.URL.Query().Get("key")
		_ = json.Unmarshal(raw, &u.lastBody)
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) Calls() int32 { return atomic.LoadInt32(&u.calls) }

func (u *upstream) last() (string, map[string]any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastKey, u.lastBody
}

func newTestRouter(t *testing.T, u *upstream, apiKey string, lim ratelimit.Limiter) http.Handler {
	t.Helper()
	eng, err := gemini.NewWithHTTPClient(config.EngineConfig{
		BaseURL: u.srv.URL + "/v1beta",
		APIKey:  apiKey,
		Timeout: config.Duration{Duration: 2 * time.Second},
	}, u.srv.Client())
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		Story:   story.New(nil, eng, config.DefaultModel, prompt.DefaultBuilder()),
		Limiter: lim,
	})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out.Error
}

const okBody = `{"candidates":[{"content":{"parts":[{"text":"  This is a 40-year-old male who presented with chest pain.\n"}]}}]}`

func TestGenerateStoryHappyPath(t *testing.T) {
	u := newUpstream(t, http.StatusOK, okBody)
	h := newTestRouter(t, u, "secret-key", nil)

	rec := do(h, http.MethodPost, PathGenerateStory, `{"formData":{"age":"40","gender":"male","chest_pain":"Yes","smoker":"No","id_row":"12"}}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out GenerateStoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "This is a 40-year-old male who presented with chest pain.", out.Story)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))

	assert.Equal(t, int32(1), u.Calls())
	key, sent := u.last()
	assert.Equal(t, "secret-key", key)

	gc, _ := sent["generationConfig"].(map[string]any)
	assert.Equal(t, 0.3, gc["temperature"])

	contents, _ := sent["contents"].([]any)
	require.Len(t, contents, 1)
	parts, _ := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 1)
	text, _ := parts[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "- age: 40\n- gender: male\n- chest_pain: Yes")
	assert.NotContains(t, text, "smoker")
	assert.NotContains(t, text, "id_row")
}

func TestGenerateStoryNetlifyPath(t *testing.T) {
	u := newUpstream(t, http.StatusOK, okBody)
	h := newTestRouter(t, u, "k", nil)

	rec := do(h, http.MethodPost, PathNetlifyFunction, `{"formData":{"age":"40"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), u.Calls())
}

func TestGenerateStoryRejectsOtherMethods(t *testing.T) {
	u := newUpstream(t, http.StatusOK, okBody)
	h := newTestRouter(t, u, "k", nil)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec := do(h, method, PathGenerateStory, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Equal(t, "Method Not Allowed", rec.Body.String(), method)
	}
	assert.Zero(t, u.Calls())
}

func TestGenerateStoryMissingCredential(t *testing.T) {
	u := newUpstream(t, http.StatusOK, okBody)
	h := newTestRouter(t, u, "", nil)

	rec := do(h, http.MethodPost, PathGenerateStory, `{"formData":{"age":"40"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server configuration error", decodeError(t, rec))
	assert.Zero(t, u.Calls())
}

func TestGenerateStoryEmptyInput(t *testing.T) {
	u := newUpstream(t, http.StatusOK, okBody)
	h := newTestRouter(t, u, "k", nil)

	for _, body := range []string{
		`{"formData":{}}`,
		`{"formData":{"a":"No","b":"false","c":"لا","d":"   ","id_x":"1"}}`,
		`{}`,
	} {
		rec := do(h, http.MethodPost, PathGenerateStory, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "No sufficient data to generate a story.", decodeError(t, rec), body)
	}
	assert.Zero(t, u.Calls())
}

func TestGenerateStoryMalformedBody(t *testing.T) {
	u := newUpstream(t, http.StatusOK, okBody)
	h := newTestRouter(t, u, "k", nil)

	rec := do(h, http.MethodPost, PathGenerateStory, `{"formData":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeError(t, rec))

	rec = do(h, http.MethodPost, PathGenerateStory, `{"formData":["not","an","object"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, u.Calls())
}

func TestGenerateStoryUpstreamError(t *testing.T) {
	u := newUpstream(t, http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	h := newTestRouter(t, u, "k", nil)

	rec := do(h, http.MethodPost, PathGenerateStory, `{"formData":{"age":"40"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeError(t, rec), "quota exceeded")
	assert.Equal(t, int32(1), u.Calls())
}

func TestGenerateStoryUpstreamErrorWithoutMessage(t *testing.T) {
	u := newUpstream(t, http.StatusServiceUnavailable, `{}`)
	h := newTestRouter(t, u, "k", nil)

	rec := do(h, http.MethodPost, PathGenerateStory, `{"formData":{"age":"40"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate content from Gemini", decodeError(t, rec))
}

func TestGenerateStoryFallbackOnEmptyCandidates(t *testing.T) {
	u := newUpstream(t, http.StatusOK, `{"candidates":[]}`)
	h := newTestRouter(t, u, "k", nil)

	rec := do(h, http.MethodPost, PathGenerateStory, `{"formData":{"age":"40"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out GenerateStoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, story.FallbackStory, out.Story)
}

func TestGenerateStoryRateLimited(t *testing.T) {
	u := newUpstream(t, http.StatusOK, okBody)
	h := newTestRouter(t, u, "k", ratelimit.NewLocal(ratelimit.Config{Limit: 1, Window: time.Minute}))

	rec := do(h, http.MethodPost, PathGenerateStory, `{"formData":{"age":"40"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, PathGenerateStory, `{"formData":{"age":"40"}}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests", decodeError(t, rec))
	assert.Equal(t, int32(1), u.Calls())

	// The method gate still answers; it never spends budget.
	rec = do(h, http.MethodGet, PathGenerateStory, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	u := newUpstream(t, http.StatusOK, okBody)

	ready := newTestRouter(t, u, "k", nil)
	assert.Equal(t, http.StatusOK, do(ready, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(ready, http.MethodGet, "/readyz", "").Code)

	unready := newTestRouter(t, u, "", nil)
	assert.Equal(t, http.StatusOK, do(unready, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(unready, http.MethodGet, "/readyz", "").Code)
	assert.Zero(t, u.Calls())
}

func TestRequestIDIsEchoed(t *testing.T) {
	u := newUpstream(t, http.StatusOK, okBody)
	h := newTestRouter(t, u, "k", nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(headerRequestID))
	assert.NotEmpty(t, rec.Header().Get(headerTraceID))
}
