package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquifer-fi/aquifer/internal/domain"
)

// Client calls an out-of-process enhancement service over HTTP.
// Every call runs under the configured timeout regardless of the caller's
// context, so a stalled service can never hold up scoring.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates an enhancement service client
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "enhancer").Logger(),
	}
}

type enhanceRequest struct {
	Class      string            `json:"class"`
	Attributes domain.Attributes `json:"attributes"`
}

type enhanceResponse struct {
	Attributes domain.Attributes `json:"attributes"`
}

// Enhance sends the attributes to the enhancement service and returns the
// enriched attribute bag.
func (c *Client) Enhance(ctx context.Context, class domain.AssetClass, attrs domain.Attributes) (domain.Attributes, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(enhanceRequest{Class: string(class), Attributes: attrs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal enhance request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/enhance", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build enhance request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enhance call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enhance service returned status %d", resp.StatusCode)
	}

	var parsed enhanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode enhance response: %w", err)
	}
	if parsed.Attributes == nil {
		return nil, fmt.Errorf("enhance service returned no attributes")
	}

	return parsed.Attributes, nil
}
