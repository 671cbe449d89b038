package genai

import (
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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okBody(text string) string {
	return `{"candidates":[{"content":{"role":"model","parts":[{"text":"thinking","thought":true},{"text":` +
		strconvQuote(text) + `}]},"finishReason":"STOP"}]}`
}

func strconvQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestClient(url string, retries int) *Client {
	return NewClient(Options{BaseURL: url, MaxRetries: retries, Backoff: NoBackoff{}, Timeout: 5 * time.Second})
}

func TestGenerate_Success(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k1", r.URL.Query().Get("key"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		io.WriteString(w, okBody("report text"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 0)
	text, err := c.Generate(context.Background(), "k1", "hello", ResearchParams)
	require.NoError(t, err)
	assert.Equal(t, "report text", text)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "hello", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 0.7, got.GenerationConfig.Temperature)
	require.NotNil(t, got.GenerationConfig.ThinkingConfig)
	assert.Equal(t, 8192, got.GenerationConfig.ThinkingConfig.ThinkingBudget)
	require.Len(t, got.Tools, 1)
	assert.NotNil(t, got.Tools[0].GoogleSearch)
}

func TestGenerate_NoSearchNoThinking(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		io.WriteString(w, okBody("ok"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).Generate(context.Background(), "k", "p", ContentParams)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "google_search")
	assert.NotContains(t, string(raw), "thinkingConfig")
}

func TestGenerate_EmptyCredential(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", 0)
	_, err := c.Generate(context.Background(), "  ", "p", ContentParams)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGenerate_RateLimitNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Generate(context.Background(), "k", "p", ContentParams)
	require.Error(t, err)
	var rl *RateLimitError
	assert.True(t, errors.As(err, &rl))
	assert.True(t, IsRateLimit(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerate_ServerErrorRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		io.WriteString(w, okBody("third time"))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL, 2).Generate(context.Background(), "k", "p", ContentParams)
	require.NoError(t, err)
	assert.Equal(t, "third time", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerate_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"bad prompt","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Generate(context.Background(), "k", "p", ContentParams)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 400, se.Code)
	assert.Contains(t, se.Message, "bad prompt")
	assert.False(t, IsRateLimit(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Generate(context.Background(), "k", "p", ContentParams)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestGenerate_Blocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).Generate(context.Background(), "k", "p", ContentParams)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGenerate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestClient(srv.URL, 3).Generate(ctx, "secret-key", "p", ContentParams)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestIsRateLimit_Patterns(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"HTTP 429 Too Many Requests", true},
		{"Rate Limit exceeded", true},
		{"quota exhausted for project", true},
		{"Resource Exhausted", true},
		{"RESOURCE_EXHAUSTED", true},
		{"connection reset by peer", false},
		{"status 500", false},
	}
	for _, tt := range tests {
		if got := IsRateLimit(errors.New(tt.msg)); got != tt.want {
			t.Errorf("IsRateLimit(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
	assert.False(t, IsRateLimit(nil))
}

func TestClassify_QuotaBodyOn403(t *testing.T) {
	err := classify(http.StatusForbidden, []byte(`{"error":{"code":403,"message":"Quota exceeded for metric"}}`))
	var rl *RateLimitError
	assert.True(t, errors.As(err, &rl))
}

func TestClassify_PlainBody(t *testing.T) {
	err := classify(http.StatusBadGateway, []byte("upstream down"))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "upstream down", se.Message)
	assert.True(t, transient(err))
}

func TestExponentialJitter_Bounds(t *testing.T) {
	b := ExponentialJitter{Initial: 100 * time.Millisecond, Max: time.Second}
	for attempt := 1; attempt <= 10; attempt++ {
		d := b.Delay(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestGeneratorFunc(t *testing.T) {
	var g Generator = GeneratorFunc(func(_ context.Context, cred, prompt string, _ Params) (string, error) {
		return strings.ToUpper(prompt), nil
	})
	out, err := g.Generate(context.Background(), "k", "abc", Params{})
	require.NoError(t, err)
	assert.Equal(t, "ABC", out)
}
