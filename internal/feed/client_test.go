package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitchside/internal/config"
)

type unlimitedBudget struct{}

func (unlimitedBudget) Acquire(context.Context) error { return nil }

func newTestClient(t *testing.T, serverURL string) *APIClient {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := config.FeedConfig{
		Provider:              "apifootball",
		BaseURL:               serverURL,
		APIKey:                "test-key-1234",
		Season:                2026,
		RequestTimeoutSeconds: 5,
		MaxRetries:            2,
		RetryBaseDelayMs:      1,
	}

	return NewAPIClient(cfg, unlimitedBudget{}, 1000, log)
}

func TestCompetitionsBareArrayPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/competitions", r.URL.Path)
		assert.Equal(t, "2026", r.URL.Query().Get("season"))
		assert.Equal(t, "test-key-1234", r.Header.Get(apiKeyHeader))
		w.Write([]byte(`[{"id": "39", "name": "Premier League", "country": "England", "season": "2026"}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	competitions, err := client.Competitions(context.Background())

	require.NoError(t, err)
	require.Len(t, competitions, 1)
	assert.Equal(t, "39", competitions[0].ID)
	assert.Equal(t, "Premier League", competitions[0].Name)
}

func TestFixturesEnvelopePayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": [
			{"id": "1001", "date": "2026-09-01", "time": "19:45", "status": "NS",
			 "home_team": {"id": "50", "name": "Manchester City"},
			 "away_team": {"id": "42", "name": "Arsenal"}}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	fixtures, err := client.FixturesByCompetition(context.Background(), "39", from, from.AddDate(0, 0, 7))

	require.NoError(t, err)
	require.Len(t, fixtures, 1)
	assert.Equal(t, "1001", fixtures[0].ID)
	assert.Equal(t, "Manchester City", fixtures[0].HomeTeam.Name)
	assert.Equal(t, "19:45", fixtures[0].Time)
}

func TestRetriesRateLimitThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	competitions, err := client.Competitions(context.Background())

	require.NoError(t, err)
	assert.Empty(t, competitions)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestExhaustedRetriesReturnUnavailable(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Competitions(context.Background())

	var unavailable *FeedUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "competitions", unavailable.Endpoint)
	// initial attempt plus MaxRetries
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "no such fixture"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.OddsByFixture(context.Background(), "9999")

	var reqErr *FeedRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Contains(t, reqErr.Body, "no such fixture")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOddsEmptyResponseIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	odds, err := client.OddsByFixture(context.Background(), "1001")

	require.NoError(t, err)
	assert.Equal(t, "1001", odds.FixtureID)
	assert.Empty(t, odds.Bookmakers)
}

func TestOddsDecodesBookmakerTree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1001", r.URL.Query().Get("fixture"))
		w.Write([]byte(`[{"fixture_id": "1001", "bookmakers": [
			{"id": "8", "name": "bet365", "markets": [
				{"key": "1X2", "outcomes": [
					{"name": "Home", "price": "2.10"},
					{"name": "Draw", "price": "3.40"},
					{"name": "Away", "price": "3.60"}
				]}
			]}
		]}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	odds, err := client.OddsByFixture(context.Background(), "1001")

	require.NoError(t, err)
	require.Len(t, odds.Bookmakers, 1)
	require.Len(t, odds.Bookmakers[0].Markets, 1)
	assert.Equal(t, "1X2", odds.Bookmakers[0].Markets[0].Key)
	assert.Len(t, odds.Bookmakers[0].Markets[0].Outcomes, 3)
	assert.Equal(t, "2.10", odds.Bookmakers[0].Markets[0].Outcomes[0].Price)
}

type deniedBudget struct{}

func (deniedBudget) Acquire(context.Context) error { return errors.New("budget closed") }

func TestBudgetDenialShortCircuitsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should reach the provider")
	}))
	defer server.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := config.FeedConfig{
		Provider: "apifootball", BaseURL: server.URL, APIKey: "k",
		Season: 2026, RequestTimeoutSeconds: 5, MaxRetries: 0, RetryBaseDelayMs: 1,
	}
	client := NewAPIClient(cfg, deniedBudget{}, 1000, log)

	_, err := client.Competitions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request slot")
}

func TestRedactCredential(t *testing.T) {
	assert.Equal(t, "*********1234", redactCredential("test-key-1234"))
	assert.Equal(t, "****", redactCredential("abc"))
}
