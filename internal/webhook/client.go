// Package webhook talks to the external analysis webhook.
package webhook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/dyike/tickerview/internal/models"
)

// Client POSTs tickers to the analysis webhook. It sends exactly one request
// per call: there is no retry, and no timeout unless one is configured.
type Client struct {
	mu       sync.RWMutex
	endpoint string
	http     *resty.Client
}

type Option func(*Client)

// WithTimeout bounds each request. Zero leaves the transport's own limits.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.http.SetHeader("User-Agent", ua)
		}
	}
}

// NewClient creates a client for the given webhook URL.
func NewClient(endpoint string, opts ...Option) *Client {
	client := resty.New()
	client.SetRetryCount(0)
	client.SetHeader("Accept", "application/json")

	c := &Client{endpoint: endpoint, http: client}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the webhook URL currently in use.
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// SetEndpoint points later calls at a new webhook URL. Calls already in
// flight keep the URL they started with.
func (c *Client) SetEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = endpoint
}

// Analyze sends the ticker and decodes the webhook's response.
//
// A non-2xx status or a network failure yields a *TransportError. A body
// that is not a JSON object yields a *models.MalformedResponseError. A
// workflow failure reported inside a well-formed body is not an error: it
// comes back as a response whose Error field is set.
func (c *Client) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error) {
	endpoint := c.Endpoint()
	requestID := uuid.New().String()
	start := time.Now()

	log.Debug().
		Str("request_id", requestID).
		Str("ticker", req.Ticker).
		Str("endpoint", endpoint).
		Msg("Sending analysis request")

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-ID", requestID).
		SetBody(req).
		Post(endpoint)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Str("ticker", req.Ticker).Msg("Webhook unreachable")
		return nil, &TransportError{Err: err}
	}

	if !resp.IsSuccess() {
		log.Warn().
			Str("request_id", requestID).
			Str("ticker", req.Ticker).
			Int("status", resp.StatusCode()).
			Msg("Webhook returned non-2xx status")
		return nil, &TransportError{StatusCode: resp.StatusCode()}
	}

	result, err := models.ParseAnalysisResponse(resp.Body())
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Str("ticker", req.Ticker).Msg("Webhook response could not be decoded")
		return nil, err
	}

	log.Info().
		Str("request_id", requestID).
		Str("ticker", req.Ticker).
		Bool("workflow_error", result.IsError()).
		Dur("duration", time.Since(start)).
		Msg("Analysis response received")
	return result, nil
}

// TransportError is a failed exchange with the webhook: either no response
// at all or a non-2xx status.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook HTTP error! Status: %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "webhook request failed"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
