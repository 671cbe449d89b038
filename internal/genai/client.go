package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel      = "gemini-2.5-flash"
	DefaultTimeout    = 5 * time.Minute
	DefaultMaxRetries = 2
)

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration // per call
	MaxRetries int           // in-place retries of transient failures
	RPS        float64       // client-side pacing, 0 disables
	Burst      int
	Backoff    Backoff
	HTTPClient *http.Client
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
	backoff    Backoff
	http       *http.Client
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		http:       opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.backoff == nil {
		c.backoff = DefaultBackoff()
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return c
}

type part struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generationConfig struct {
	Temperature     float64         `json:"temperature"`
	MaxOutputTokens int             `json:"maxOutputTokens,omitempty"`
	ThinkingConfig  *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	Tools            []tool           `json:"tools,omitempty"`
}

type response struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func buildRequest(prompt string, p Params) request {
	req := request{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     p.Temperature,
			MaxOutputTokens: p.MaxOutputTokens,
		},
	}
	if p.ThinkingBudget > 0 {
		req.GenerationConfig.ThinkingConfig = &thinkingConfig{ThinkingBudget: p.ThinkingBudget}
	}
	if p.Search {
		req.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}
	return req
}

// Generate implements Generator. Transient failures (transport errors,
// timeouts, 5xx) are retried with backoff; rate limits surface immediately.
func (c *Client) Generate(ctx context.Context, credential, prompt string, p Params) (string, error) {
	if err := CheckCredential(credential); err != nil {
		return "", err
	}
	body, err := json.Marshal(buildRequest(prompt, p))
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			d := c.backoff.Delay(attempt)
			log.Warn().Err(lastErr).Int("attempt", attempt).Dur("delay", d).Msg("retrying generation")
			if err := sleepCtx(ctx, d); err != nil {
				return "", err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}
		text, err := c.call(ctx, credential, body)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil || !transient(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *Client) call(ctx context.Context, credential string, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(credential))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", c.model, redactKey(err, credential))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	log.Debug().Str("model", c.model).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("generation call")
	if resp.StatusCode != http.StatusOK {
		return "", classify(resp.StatusCode, raw)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if out.PromptFeedback.BlockReason != "" {
		return "", &emptyResponseError{reason: "blocked: " + out.PromptFeedback.BlockReason}
	}
	if len(out.Candidates) == 0 {
		return "", &emptyResponseError{}
	}
	var sb strings.Builder
	for _, pt := range out.Candidates[0].Content.Parts {
		if pt.Thought {
			continue
		}
		sb.WriteString(pt.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", &emptyResponseError{reason: out.Candidates[0].FinishReason}
	}
	return sb.String(), nil
}

// redactKey keeps the API key out of *url.Error messages.
func redactKey(err error, credential string) error {
	if credential == "" {
		return err
	}
	return &redactedError{err: err, msg: strings.ReplaceAll(err.Error(), url.QueryEscape(credential), "REDACTED")}
}

type redactedError struct {
	err error
	msg string
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
