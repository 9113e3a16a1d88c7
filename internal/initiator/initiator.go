// internal/initiator/initiator.go
// Package initiator starts pipelines by calling the orchestrator's REST API.
// Retry policy lives here by contract: the matching core above performs
// exactly one logical dispatch per (event, pipeline), and this client may
// spend a few attempts making that dispatch stick.
package initiator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/FairForge/catapult/internal/trigger"
)

// Config tunes the orchestrator client.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryInterval  time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithClientCredentials authenticates calls with an OAuth2 client
// credentials grant.
func WithClientCredentials(tokenURL, clientID, clientSecret string, scopes []string) Option {
	return func(c *Client) {
		cc := clientcredentials.Config{
			TokenURL:     tokenURL,
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       scopes,
		}
		timeout := c.client.Timeout
		c.client = cc.Client(context.Background())
		c.client.Timeout = timeout
	}
}

// Client launches pipelines over HTTP.
type Client struct {
	baseURL       string
	client        *http.Client
	maxRetries    int
	retryInterval time.Duration
	logger        *zap.Logger
}

// New creates an orchestrator client.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Second
	}

	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		client:        &http.Client{Timeout: cfg.RequestTimeout},
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// launchRequest is the orchestrator's invocation payload. Pipeline identity
// travels in the body as well as the path so the orchestrator can log a
// self-contained record.
type launchRequest struct {
	PipelineID  string             `json:"pipeline_id"`
	Application string             `json:"application"`
	Pipeline    string             `json:"pipeline"`
	Trigger     trigger.Trigger    `json:"trigger"`
	Artifacts   []trigger.Artifact `json:"artifacts"`
}

// StartPipeline asks the orchestrator to run one pipeline. Transport
// failures and 5xx responses are retried at a fixed interval; any 4xx is
// terminal since resending the same request cannot fix it.
func (c *Client) StartPipeline(ctx context.Context, pipeline trigger.Pipeline, inv trigger.Invocation) error {
	body, err := json.Marshal(launchRequest{
		PipelineID:  pipeline.ID,
		Application: pipeline.Application,
		Pipeline:    pipeline.Name,
		Trigger:     inv.Trigger,
		Artifacts:   inv.ReceivedArtifacts,
	})
	if err != nil {
		return fmt.Errorf("initiator: encode launch: %w", err)
	}

	url := fmt.Sprintf("%s/v1/pipelines/%s/invocations", c.baseURL, pipeline.ID)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("initiator: start %s: %w", pipeline.ID, ctx.Err())
			case <-time.After(c.retryInterval):
			}
		}

		status, err := c.send(ctx, url, inv.EventID, body)
		switch {
		case err != nil:
			lastErr = err
		case status >= 200 && status < 300:
			return nil
		case status >= 400 && status < 500:
			return fmt.Errorf("initiator: start %s: orchestrator returned %d", pipeline.ID, status)
		default:
			lastErr = fmt.Errorf("orchestrator returned %d", status)
		}

		c.logger.Warn("pipeline launch attempt failed",
			zap.String("pipeline_id", pipeline.ID),
			zap.String("event_id", inv.EventID),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
	}
	return fmt.Errorf("initiator: start %s after %d attempts: %w", pipeline.ID, c.maxRetries, lastErr)
}

func (c *Client) send(ctx context.Context, url, eventID string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if eventID != "" {
		req.Header.Set("X-Event-ID", eventID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
