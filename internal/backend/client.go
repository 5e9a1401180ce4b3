// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SyDuc7421/chatbot-gui/internal/logger"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8080/api/v1"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the chat client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same type, so the sentinels below work
// with errors.Is regardless of message or cause.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeCancelled
	ErrTypeStatus
	ErrTypeInvalidResponse
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeCancelled:
		return "cancelled"
	case ErrTypeStatus:
		return "status"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrConnection      = &ClientError{Type: ErrTypeConnection, Message: "chat backend unreachable"}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrCancelled       = &ClientError{Type: ErrTypeCancelled, Message: "request cancelled"}
	ErrStatus          = &ClientError{Type: ErrTypeStatus, Message: "unexpected status"}
	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid response"}
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest is the body sent to the chat endpoint.
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse is the body expected from the chat endpoint.
type ChatResponse struct {
	Answer *string `json:"answer"`
	Error  string  `json:"error,omitempty"`
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the chat client.
type ClientConfig struct {
	// BaseURL resolves the service base URL. It is called on every request
	// so configuration reloads take effect without rebuilding the client.
	// Default: DefaultBaseURL.
	BaseURL func() string

	// Timeout for a single attempt (default: 60s)
	Timeout time.Duration

	// Attempts is the number of tries for transport and 5xx failures (default: 1)
	Attempts int

	// RetryDelay between attempts (default: 500ms)
	RetryDelay time.Duration

	// RatePerSec limits request starts per second. Zero disables limiting.
	RatePerSec float64

	// Burst is the limiter bucket size (default: 1)
	Burst int

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:    StaticURL(DefaultBaseURL),
		Timeout:    60 * time.Second,
		Attempts:   1,
		RetryDelay: 500 * time.Millisecond,
		Burst:      1,
	}
}

// StaticURL returns a resolver that always yields url.
func StaticURL(url string) func() string {
	return func() string { return url }
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends questions to the chat service.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == nil {
		config.BaseURL = StaticURL(DefaultBaseURL)
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.Attempts <= 0 {
		config.Attempts = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}

	limit := rate.Inf
	if config.RatePerSec > 0 {
		limit = rate.Limit(config.RatePerSec)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, config.Burst),
		log:        logger.Named("backend"),
	}
}

// Endpoint returns the chat URL for the current base URL.
func (c *Client) Endpoint() string {
	base := strings.TrimSpace(c.config.BaseURL())
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/chat"
}

// =============================================================================
// CHAT
// =============================================================================

// Ask sends question and returns the answer.
//
// Transport failures and 5xx responses are retried up to Attempts times.
// A response without a non-empty answer is ErrTypeInvalidResponse.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(ChatRequest{Question: question})
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	var lastErr error
	for attempt := 1; attempt <= c.config.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", contextError(ctx.Err())
			case <-time.After(c.config.RetryDelay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return "", contextError(ctx.Err())
			}
			return "", &ClientError{Type: ErrTypeConnection, Message: "rate limiter", Cause: err}
		}

		answer, err := c.do(ctx, body)
		if err == nil {
			return answer, nil
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil {
			break
		}
		c.log.Debug("retrying chat request",
			zap.Int("attempt", attempt),
			zap.Int("attempts", c.config.Attempts),
			zap.Error(err))
	}
	return "", lastErr
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", contextError(ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) || isNetTimeout(err) {
			return "", &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
		}
		return "", &ClientError{Type: ErrTypeConnection, Message: "chat backend unreachable", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &ClientError{Type: ErrTypeConnection, Message: "failed to read response", Cause: err}
	}

	var result ChatResponse
	decodeErr := json.Unmarshal(data, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "unexpected status from chat backend: " + resp.Status
		if decodeErr == nil && result.Error != "" {
			msg += ": " + result.Error
		}
		return "", &ClientError{Type: ErrTypeStatus, Message: msg, Cause: statusCode(resp.StatusCode)}
	}

	if decodeErr != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: decodeErr}
	}
	if result.Answer == nil || strings.TrimSpace(*result.Answer) == "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "response has no answer"}
	}
	return *result.Answer, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// StatusError carries the HTTP status code of a failed response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d", e.Code)
}

func statusCode(code int) error {
	return &StatusError{Code: code}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeCancelled, Message: "request cancelled", Cause: err}
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		return false
	}
	switch clientErr.Type {
	case ErrTypeConnection, ErrTypeTimeout:
		return true
	case ErrTypeStatus:
		var se *StatusError
		return errors.As(err, &se) && se.Code >= 500
	default:
		return false
	}
}

// IsTimeout returns true if the error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled returns true if the request was cancelled by the caller.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsInvalidResponse returns true if the service replied without a usable answer.
func IsInvalidResponse(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}
