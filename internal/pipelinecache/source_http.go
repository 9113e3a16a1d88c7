// internal/pipelinecache/source_http.go
package pipelinecache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/FairForge/catapult/internal/trigger"
)

// HTTPSource loads pipelines from the definition service's REST API.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// HTTPSourceOption customizes an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithClientCredentials authenticates requests with an OAuth2 client
// credentials grant, the way the platform's service-to-service calls do.
func WithClientCredentials(tokenURL, clientID, clientSecret string, scopes []string) HTTPSourceOption {
	return func(s *HTTPSource) {
		cc := clientcredentials.Config{
			TokenURL:     tokenURL,
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       scopes,
		}
		s.client = cc.Client(context.Background())
		s.client.Timeout = 30 * time.Second
	}
}

// NewHTTPSource creates a source reading GET {baseURL}/pipelines.
func NewHTTPSource(baseURL string, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches and decodes the full pipeline list.
func (s *HTTPSource) Load(ctx context.Context) ([]trigger.Pipeline, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/pipelines", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pipelines: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch pipelines: status %d", resp.StatusCode)
	}

	var pipelines []trigger.Pipeline
	if err := json.NewDecoder(resp.Body).Decode(&pipelines); err != nil {
		return nil, fmt.Errorf("decode pipelines: %w", err)
	}
	return pipelines, nil
}
