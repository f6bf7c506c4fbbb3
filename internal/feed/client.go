// Package feed implements the typed client for the external sports-data
// provider. Every outbound call first acquires a slot from the shared request
// budget, then rides a retrying HTTP client with local rate smoothing.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/pitchside/internal/config"
	"github.com/yourusername/pitchside/internal/metrics"
)

const (
	apiKeyHeader = "X-Feed-Key"

	// maxBodyBytes bounds how much of a response we will ever read
	maxBodyBytes = 4 << 20

	// truncateAt bounds how much of an error body is carried in diagnostics
	truncateAt = 512
)

// RequestBudget grants slots from the shared provider rate budget
type RequestBudget interface {
	Acquire(ctx context.Context) error
}

// Client is the provider API surface consumed by ingestion and settlement
type Client interface {
	Competitions(ctx context.Context) ([]CompetitionPayload, error)
	FixturesByCompetition(ctx context.Context, competitionID string, from, to time.Time) ([]FixturePayload, error)
	OddsByFixture(ctx context.Context, fixtureID string) (*OddsPayload, error)
	LiveScores(ctx context.Context) ([]FixturePayload, error)
	FinishedScores(ctx context.Context, day time.Time) ([]FixturePayload, error)
}

// APIClient implements Client over the provider's REST API
type APIClient struct {
	http    *retryablehttp.Client
	limiter *rate.Limiter
	budget  RequestBudget
	cfg     config.FeedConfig
	logger  *logrus.Logger
}

// NewAPIClient creates a provider client. smoothingRPS spreads this process's
// share of the window budget over time so fan-out bursts do not front-load the
// window.
func NewAPIClient(cfg config.FeedConfig, budget RequestBudget, smoothingRPS float64, logger *logrus.Logger) *APIClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.RequestTimeout()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryBaseDelay()
	retryClient.RetryWaitMax = cfg.RetryBaseDelay() * time.Duration(1<<uint(cfg.MaxRetries))
	retryClient.CheckRetry = feedRetryPolicy()
	retryClient.Logger = nil

	return &APIClient{
		http:    retryClient,
		limiter: rate.NewLimiter(rate.Limit(smoothingRPS), 1),
		budget:  budget,
		cfg:     cfg,
		logger:  logger,
	}
}

// feedRetryPolicy retries network errors, 429 and 5xx. Any other 4xx is the
// caller's mistake and retrying will not fix it.
func feedRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}
}

// Competitions fetches the provider's competition listing for the configured
// season
func (c *APIClient) Competitions(ctx context.Context) ([]CompetitionPayload, error) {
	params := url.Values{}
	params.Set("season", fmt.Sprintf("%d", c.cfg.Season))

	body, err := c.get(ctx, "competitions", params)
	if err != nil {
		return nil, err
	}

	var competitions []CompetitionPayload
	if err := decodePayload(body, &competitions); err != nil {
		return nil, err
	}
	return competitions, nil
}

// FixturesByCompetition fetches fixtures for one competition within a date
// window
func (c *APIClient) FixturesByCompetition(ctx context.Context, competitionID string, from, to time.Time) ([]FixturePayload, error) {
	params := url.Values{}
	params.Set("competition", competitionID)
	params.Set("season", fmt.Sprintf("%d", c.cfg.Season))
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	body, err := c.get(ctx, "fixtures", params)
	if err != nil {
		return nil, err
	}

	var fixtures []FixturePayload
	if err := decodePayload(body, &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

// OddsByFixture fetches the full bookmaker/market/outcome offering for one
// fixture. A fixture with no odds yet yields an empty payload, not an error.
func (c *APIClient) OddsByFixture(ctx context.Context, fixtureID string) (*OddsPayload, error) {
	params := url.Values{}
	params.Set("fixture", fixtureID)

	body, err := c.get(ctx, "odds", params)
	if err != nil {
		return nil, err
	}

	var payloads []OddsPayload
	if err := decodePayload(body, &payloads); err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return &OddsPayload{FixtureID: fixtureID}, nil
	}
	return &payloads[0], nil
}

// LiveScores fetches all fixtures the provider currently reports in play
func (c *APIClient) LiveScores(ctx context.Context) ([]FixturePayload, error) {
	params := url.Values{}
	params.Set("live", "all")

	body, err := c.get(ctx, "fixtures", params)
	if err != nil {
		return nil, err
	}

	var fixtures []FixturePayload
	if err := decodePayload(body, &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

// FinishedScores fetches fixtures that completed on the given day
func (c *APIClient) FinishedScores(ctx context.Context, day time.Time) ([]FixturePayload, error) {
	params := url.Values{}
	params.Set("date", day.Format("2006-01-02"))
	params.Set("status", "FT")

	body, err := c.get(ctx, "fixtures", params)
	if err != nil {
		return nil, err
	}

	var fixtures []FixturePayload
	if err := decodePayload(body, &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

// get performs one budget-governed GET against the provider and classifies
// the outcome into the feed error taxonomy
func (c *APIClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.budget.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire request slot: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	requestURL := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"params":   params.Encode(),
		"api_key":  redactCredential(c.cfg.APIKey),
	}).Debug("Feed request")

	resp, err := c.http.Do(req)
	if err != nil {
		// Network failure or a retryable status that survived the retry
		// budget
		metrics.FeedRequestsTotal.WithLabelValues(endpoint, "unavailable").Inc()
		return nil, NewFeedUnavailableError(endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.FeedRequestsTotal.WithLabelValues(endpoint, "unavailable").Inc()
		return nil, NewFeedUnavailableError(endpoint, fmt.Errorf("failed to read response body: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		metrics.FeedRequestsTotal.WithLabelValues(endpoint, "success").Inc()
		c.logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
			"bytes":    len(body),
		}).Debug("Feed response")
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		metrics.FeedRequestsTotal.WithLabelValues(endpoint, "unavailable").Inc()
		return nil, NewFeedUnavailableError(endpoint, fmt.Errorf("status %d after retries", resp.StatusCode))
	default:
		metrics.FeedRequestsTotal.WithLabelValues(endpoint, "rejected").Inc()
		return nil, NewFeedRequestError(endpoint, resp.StatusCode, truncateBody(body))
	}
}

// redactCredential masks a credential for debug logging, keeping the last
// four characters for cross-referencing with the provider dashboard
func redactCredential(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func truncateBody(body []byte) string {
	if len(body) > truncateAt {
		return string(body[:truncateAt]) + "..."
	}
	return string(body)
}
