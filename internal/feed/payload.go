package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CompetitionPayload is a league or tournament as reported by the provider
type CompetitionPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Season  string `json:"season"`
}

// TeamPayload is a side as reported inside a fixture
type TeamPayload struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Badge *string `json:"badge,omitempty"`
}

// FixturePayload is a single fixture with its current provider status. Date
// and Time arrive as separate strings whose layout varies by provider version,
// so parsing happens downstream, defensively.
type FixturePayload struct {
	ID        string      `json:"id"`
	Date      string      `json:"date"`
	Time      string      `json:"time"`
	Status    string      `json:"status"`
	HomeTeam  TeamPayload `json:"home_team"`
	AwayTeam  TeamPayload `json:"away_team"`
	HomeScore *int        `json:"home_score,omitempty"`
	AwayScore *int        `json:"away_score,omitempty"`
	UpdatedAt string      `json:"updated_at,omitempty"`
}

// OutcomeOdds is one priced selection within a market. Price is kept as a
// string; providers send decimal odds as JSON strings.
type OutcomeOdds struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// MarketOdds is one market offered by a bookmaker, identified by the
// provider's own market key
type MarketOdds struct {
	Key      string        `json:"key"`
	Line     string        `json:"line,omitempty"`
	Outcomes []OutcomeOdds `json:"outcomes"`
}

// BookmakerOdds groups a bookmaker's full market offering for one fixture
type BookmakerOdds struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Markets []MarketOdds `json:"markets"`
}

// OddsPayload is the provider's odds response for a single fixture. An empty
// Bookmakers slice is a legitimate response for fixtures far in the future.
type OddsPayload struct {
	FixtureID  string          `json:"fixture_id"`
	Bookmakers []BookmakerOdds `json:"bookmakers"`
}

// decodePayload unmarshals a provider response body into out. Older provider
// versions return a bare JSON array, newer ones wrap it in a
// {"response": [...]} envelope; both are accepted.
func decodePayload(data []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Response json.RawMessage `json:"response"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return fmt.Errorf("failed to decode feed envelope: %w", err)
		}
		if envelope.Response == nil {
			return fmt.Errorf("feed payload object missing response field")
		}
		if err := json.Unmarshal(envelope.Response, out); err != nil {
			return fmt.Errorf("failed to decode feed response: %w", err)
		}
		return nil
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("failed to decode feed response: %w", err)
	}
	return nil
}
