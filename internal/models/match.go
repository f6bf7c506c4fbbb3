package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus represents the lifecycle status of a match
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "SCHEDULED"
	MatchStatusLive      MatchStatus = "LIVE"
	MatchStatusFinished  MatchStatus = "FINISHED"
	MatchStatusPostponed MatchStatus = "POSTPONED"
	MatchStatusCancelled MatchStatus = "CANCELLED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusFinished || s == MatchStatusPostponed || s == MatchStatusCancelled
}

// Match represents a single fixture in the system
type Match struct {
	ID            uuid.UUID   `db:"id" json:"id" validate:"required,uuid4"`
	ExternalID    string      `db:"external_id" json:"external_id" validate:"required"`
	CompetitionID uuid.UUID   `db:"competition_id" json:"competition_id" validate:"required,uuid4"`
	HomeTeamID    uuid.UUID   `db:"home_team_id" json:"home_team_id" validate:"required,uuid4"`
	AwayTeamID    uuid.UUID   `db:"away_team_id" json:"away_team_id" validate:"required,uuid4"`
	KickoffAt     *time.Time  `db:"kickoff_at" json:"kickoff_at"`
	Status        MatchStatus `db:"status" json:"status" validate:"required"`
	HomeScore     *int        `db:"home_score" json:"home_score"`
	AwayScore     *int        `db:"away_score" json:"away_score"`
	// FeedUpdatedAt is the provider's own last-modified timestamp, kept
	// verbatim for feed-freshness visibility. Distinct from the sync stamps
	// below, which are written by this system.
	FeedUpdatedAt   *time.Time `db:"feed_updated_at" json:"feed_updated_at"`
	LastOddsSyncAt  *time.Time `db:"last_odds_sync_at" json:"last_odds_sync_at"`
	LastScoreSyncAt *time.Time `db:"last_score_sync_at" json:"last_score_sync_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// HasFinalScore reports whether both score fields have been observed.
func (m *Match) HasFinalScore() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// CanTransitionTo enforces monotonic lifecycle transitions. Postponement and
// cancellation are reachable from SCHEDULED and LIVE only.
func (m *Match) CanTransitionTo(next MatchStatus) bool {
	if m.Status == next {
		return false
	}
	switch next {
	case MatchStatusLive:
		return m.Status == MatchStatusScheduled
	case MatchStatusFinished:
		return m.Status == MatchStatusScheduled || m.Status == MatchStatusLive
	case MatchStatusPostponed, MatchStatusCancelled:
		return m.Status == MatchStatusScheduled || m.Status == MatchStatusLive
	default:
		return false
	}
}

// PastCompletionWindow reports whether the match should have finished by now,
// assuming the given expected duration after kickoff.
func (m *Match) PastCompletionWindow(now time.Time, duration time.Duration) bool {
	if m.KickoffAt == nil {
		return false
	}
	if m.Status.IsTerminal() {
		return false
	}
	return now.After(m.KickoffAt.Add(duration))
}

// OddsSyncStale reports whether the fixture's odds are due for refresh.
func (m *Match) OddsSyncStale(now time.Time, threshold time.Duration) bool {
	if m.LastOddsSyncAt == nil {
		return true
	}
	return now.Sub(*m.LastOddsSyncAt) > threshold
}
