package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RateLimitError means the provider refused the call for quota reasons.
// The pipeline treats it as terminal for the run.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return "rate limit: " + e.Message
}

// StatusError is a non-2xx response that is not a rate limit.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation failed with status %d: %s", e.Code, e.Message)
}

var rateLimitMarkers = []string{"429", "rate limit", "quota", "resource exhausted", "resource_exhausted"}

// IsRateLimit reports whether err is a *RateLimitError or its message looks
// like one.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	return looksRateLimited(err.Error())
}

func looksRateLimited(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// classify turns an HTTP status and body into a typed error.
func classify(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		msg = ae.Error.Message
		if ae.Error.Status != "" {
			msg = ae.Error.Status + ": " + msg
		}
	}
	if code == http.StatusTooManyRequests || looksRateLimited(msg) {
		return &RateLimitError{Message: msg}
	}
	return &StatusError{Code: code, Message: msg}
}

// transient reports whether a failed call is worth retrying in place.
// Rate limits and cancellations are not.
func transient(err error) bool {
	if err == nil || IsRateLimit(err) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	var ee *emptyResponseError
	if errors.As(err, &ee) {
		return false
	}
	// Transport errors and per-call timeouts.
	return true
}

type emptyResponseError struct {
	reason string
}

func (e *emptyResponseError) Error() string {
	if e.reason == "" {
		return "empty response from model"
	}
	return "empty response from model: " + e.reason
}
