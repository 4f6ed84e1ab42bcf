// Package llm is the refinement provider: an OpenAI-compatible chat-completions client
// that proposes a revised match list for a conversation.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/proposalagent/backend/internal/domain"
)

// Provider defaults
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	openAIBaseURL = "https://api.openai.com/v1/"
	geminiModel   = "gemini-1.5-flash"
	openAIModel   = "gpt-4o-mini"

	maxAttempts      = 3
	maxErrorBodySize = 2048
	maxResponseSize  = 1 << 20
)

// Config holds refinement provider settings
type Config struct {
	Provider          string
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client calls an OpenAI-compatible chat-completions endpoint
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	provider    string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	debug       bool
	logger      zerolog.Logger
}

// NewClient creates a new refinement client. Unset fields fall back to provider defaults.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = ProviderGemini
	}

	baseURL, model := cfg.BaseURL, cfg.Model
	switch provider {
	case ProviderOpenAI:
		if baseURL == "" {
			baseURL = openAIBaseURL
		}
		if model == "" {
			model = openAIModel
		}
	default:
		if baseURL == "" {
			baseURL = geminiBaseURL
		}
		if model == "" {
			model = geminiModel
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		provider:    provider,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), max(1, rpm/10)),
		backoff:     exponentialBackoff,
		logger:      logger.With().Str("component", "refinement").Str("provider", provider).Logger(),
	}
}

// SetDebug enables logging of prompts and raw responses
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Refine sends the conversation, catalog and deterministic baseline to the model and
// parses its proposed overlay. Product ids in the response are not validated here.
func (c *Client) Refine(ctx context.Context, req *domain.RefinementRequest) (*domain.RefinementResponse, error) {
	if req == nil || len(req.Catalog) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: api key not configured", domain.ErrRefinementUnavailable)
	}

	payload, err := json.Marshal(buildChatRequest(c.model, req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	c.debugLog("prompt for %d products, %d bytes", len(req.Catalog), len(payload))

	body, err := c.postWithRetry(ctx, c.baseURL+"/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrRefinementAPIFailure, err)
	}
	if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty completion", domain.ErrRefinementAPIFailure)
	}

	content := chat.Choices[0].Message.Content
	c.debugLog("raw completion: %s", content)

	resp, err := parseRefinement(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRefinementAPIFailure, err)
	}

	c.logger.Debug().Int("matches", len(resp.MatchedProducts)).Msg("refinement response parsed")
	return resp, nil
}

// postWithRetry posts payload, retrying transport errors, 429 and 5xx with exponential backoff
func (c *Client) postWithRetry(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		resp, err := c.doRequest(ctx, endpoint, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrRefinementAPIFailure, ctx.Err())
			}
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("request error")
			lastErr = err
			if attempt < maxAttempts {
				if err := c.wait(ctx, attempt); err != nil {
					return nil, err
				}
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			body, err := readLimitedBody(resp.Body, maxResponseSize)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: read body: %v", domain.ErrRefinementAPIFailure, err)
			}
			return body, nil
		}

		errBody, _ := readLimitedBody(resp.Body, maxErrorBodySize)
		resp.Body.Close()

		lastErr = fmt.Errorf("%w: status %d", domain.ErrRefinementAPIFailure, resp.StatusCode)
		c.logger.Warn().
			Int("attempt", attempt).
			Int("status", resp.StatusCode).
			Str("body", string(errBody)).
			Msg("api error")

		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < http.StatusInternalServerError {
			return nil, lastErr
		}
		if attempt < maxAttempts {
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Error().Err(lastErr).Msg("all retries failed")
	return nil, lastErr
}

// doRequest executes an HTTP POST request with proper headers
func (c *Client) doRequest(ctx context.Context, endpoint string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "ProposalAgent/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRefinementAPIFailure, err)
	}
	return resp, nil
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.backoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrRefinementAPIFailure, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		c.logger.Debug().Msgf(format, args...)
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
