// Package merge reconciles provider payloads into the domain model. All merge
// operations are update-or-create: rows are written in place and soft
// deactivated when absent, never deleted, because wagers hold references into
// the market tree.
package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitchside/internal/feed"
	"github.com/yourusername/pitchside/internal/models"
	"github.com/yourusername/pitchside/internal/repository"
)

// kickoffLayouts are the date+time layouts accepted from the provider. Older
// feed versions use day-first dates.
var kickoffLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

var feedUpdatedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Summary reports what one odds merge changed
type Summary struct {
	Bookmakers          int
	MarketsCreated      int
	MarketsUpdated      int
	OutcomesCreated     int
	OutcomesUpdated     int
	OutcomesDeactivated int
}

// Merger applies feed payloads to the domain model
type Merger struct {
	repos  *repository.Repositories
	logger *logrus.Logger
	now    func() time.Time
}

// NewMerger creates a new merger
func NewMerger(repos *repository.Repositories, logger *logrus.Logger) *Merger {
	return &Merger{
		repos:  repos,
		logger: logger,
		now:    time.Now,
	}
}

// MergeCompetitions upserts the provider's competition listing and returns
// the number of competitions merged
func (m *Merger) MergeCompetitions(ctx context.Context, payloads []feed.CompetitionPayload) (int, error) {
	merged := 0
	for _, p := range payloads {
		if p.ID == "" || p.Name == "" {
			m.logger.WithFields(logrus.Fields{
				"external_id": p.ID,
				"name":        p.Name,
			}).Warn("Skipping competition with missing identity")
			continue
		}

		competition := &models.Competition{
			ID:         uuid.New(),
			ExternalID: p.ID,
			Name:       p.Name,
			Country:    p.Country,
			Season:     p.Season,
			IsActive:   true,
		}
		if err := m.repos.Competition.Upsert(ctx, competition); err != nil {
			return merged, fmt.Errorf("failed to merge competition %s: %w", p.ID, err)
		}
		merged++
	}

	return merged, nil
}

// MergeFixtures upserts one competition's fixture listing and returns the
// match IDs touched. A single malformed fixture is logged and skipped, not
// allowed to sink the batch.
func (m *Merger) MergeFixtures(ctx context.Context, competition *models.Competition, payloads []feed.FixturePayload) ([]uuid.UUID, error) {
	matchIDs := make([]uuid.UUID, 0, len(payloads))
	for _, p := range payloads {
		id, err := m.mergeFixture(ctx, competition, p)
		if err != nil {
			m.logger.WithError(err).WithFields(logrus.Fields{
				"competition": competition.ExternalID,
				"fixture":     p.ID,
			}).Error("Failed to merge fixture")
			continue
		}
		matchIDs = append(matchIDs, id)
	}

	return matchIDs, nil
}

func (m *Merger) mergeFixture(ctx context.Context, competition *models.Competition, p feed.FixturePayload) (uuid.UUID, error) {
	if p.ID == "" {
		return uuid.Nil, fmt.Errorf("fixture payload missing external id")
	}

	homeTeamID, err := m.upsertTeam(ctx, p.HomeTeam)
	if err != nil {
		return uuid.Nil, err
	}
	awayTeamID, err := m.upsertTeam(ctx, p.AwayTeam)
	if err != nil {
		return uuid.Nil, err
	}

	status, ok := StatusFromProvider(p.Status)
	if !ok {
		m.logger.WithFields(logrus.Fields{
			"fixture": p.ID,
			"status":  p.Status,
		}).Warn("Unknown provider status, treating fixture as scheduled")
		status = models.MatchStatusScheduled
	}

	match := &models.Match{
		ID:            uuid.New(),
		ExternalID:    p.ID,
		CompetitionID: competition.ID,
		HomeTeamID:    homeTeamID,
		AwayTeamID:    awayTeamID,
		KickoffAt:     m.parseKickoff(p),
		Status:        status,
		HomeScore:     p.HomeScore,
		AwayScore:     p.AwayScore,
		FeedUpdatedAt: m.parseFeedUpdated(p),
	}
	if err := m.repos.Match.Upsert(ctx, match); err != nil {
		return uuid.Nil, err
	}

	return match.ID, nil
}

// upsertTeam writes the team as named by the fixture. The fixture feed is
// authoritative for names; a mismatch against a previously stored name is
// logged before being overwritten.
func (m *Merger) upsertTeam(ctx context.Context, p feed.TeamPayload) (uuid.UUID, error) {
	if p.ID == "" {
		return uuid.Nil, fmt.Errorf("team payload missing external id")
	}

	existing, err := m.repos.Team.GetByExternalID(ctx, p.ID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return uuid.Nil, err
	}
	if existing != nil && existing.Name != p.Name {
		m.logger.WithFields(logrus.Fields{
			"team":         p.ID,
			"stored_name":  existing.Name,
			"fixture_name": p.Name,
		}).Warn("Team name mismatch between feeds, reconciling toward fixture")
	}

	team := &models.Team{
		ID:         uuid.New(),
		ExternalID: p.ID,
		Name:       p.Name,
		BadgeURL:   p.Badge,
	}
	if err := m.repos.Team.Upsert(ctx, team); err != nil {
		return uuid.Nil, err
	}

	return team.ID, nil
}

// parseKickoff parses the provider's date+time pair. Parse failure is logged
// and the kickoff left unset rather than failing the fixture.
func (m *Merger) parseKickoff(p feed.FixturePayload) *time.Time {
	if p.Date == "" {
		return nil
	}

	raw := strings.TrimSpace(p.Date + " " + p.Time)
	for _, layout := range kickoffLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}

	m.logger.WithFields(logrus.Fields{
		"fixture": p.ID,
		"date":    p.Date,
		"time":    p.Time,
	}).Warn("Unparseable kickoff timestamp, leaving unset")
	return nil
}

// parseFeedUpdated parses the provider's own last-modified stamp, kept for
// feed-freshness visibility
func (m *Merger) parseFeedUpdated(p feed.FixturePayload) *time.Time {
	t := ParseFeedTimestamp(p.UpdatedAt)
	if t == nil && p.UpdatedAt != "" {
		m.logger.WithFields(logrus.Fields{
			"fixture":    p.ID,
			"updated_at": p.UpdatedAt,
		}).Debug("Unparseable feed update stamp, leaving unset")
	}
	return t
}

// ParseFeedTimestamp parses a provider last-modified stamp, nil when absent
// or unparseable
func ParseFeedTimestamp(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range feedUpdatedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// MergeOdds applies one fixture's full odds payload. Per bookmaker it
// update-or-creates markets and outcomes, then soft-deactivates whatever the
// latest offering no longer carries: outcomes missing from a present market,
// and entire markets the bookmaker stopped quoting.
func (m *Merger) MergeOdds(ctx context.Context, match *models.Match, payload *feed.OddsPayload) (*Summary, error) {
	summary := &Summary{}

	for _, bk := range payload.Bookmakers {
		if err := m.mergeBookmakerOdds(ctx, match, bk, summary); err != nil {
			m.logger.WithError(err).WithFields(logrus.Fields{
				"match":     match.ID,
				"bookmaker": bk.ID,
			}).Error("Failed to merge bookmaker odds")
			continue
		}
		summary.Bookmakers++
	}

	return summary, nil
}

func (m *Merger) mergeBookmakerOdds(ctx context.Context, match *models.Match, bk feed.BookmakerOdds, summary *Summary) error {
	if bk.ID == "" {
		return fmt.Errorf("bookmaker payload missing external id")
	}

	bookmaker := &models.Bookmaker{
		ID:         uuid.New(),
		ExternalID: bk.ID,
		Name:       bk.Name,
	}
	if err := m.repos.Bookmaker.Upsert(ctx, bookmaker); err != nil {
		return err
	}

	seen := make(map[string]bool, len(bk.Markets))
	for _, mk := range bk.Markets {
		seen[mk.Key] = true

		code, ok := NormalizeMarketKey(mk.Key)
		if !ok {
			m.logger.WithFields(logrus.Fields{
				"match":      match.ID,
				"market_key": mk.Key,
			}).Debug("Unrecognized market key, skipping")
			continue
		}

		category, err := m.repos.Category.GetByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to resolve category %s: %w", code, err)
		}

		if err := m.mergeMarket(ctx, match, bookmaker, category, mk, summary); err != nil {
			return err
		}
	}

	return m.deactivateVanishedMarkets(ctx, match, bookmaker, seen, summary)
}

// deactivateVanishedMarkets soft-removes this bookmaker's stored markets that
// the latest payload no longer carries at all, along with their outcomes.
// Rows stay in place; wagers keep their references.
func (m *Merger) deactivateVanishedMarkets(ctx context.Context, match *models.Match, bookmaker *models.Bookmaker, seen map[string]bool, summary *Summary) error {
	stored, err := m.repos.Market.GetByMatch(ctx, match.ID)
	if err != nil {
		return err
	}

	for _, market := range stored {
		if market.BookmakerID != bookmaker.ID || seen[market.ProviderKey] {
			continue
		}

		deactivated, err := m.repos.Outcome.DeactivateMissing(ctx, market.ID, []string{})
		if err != nil {
			return err
		}
		summary.OutcomesDeactivated += deactivated

		if !market.IsActive {
			continue
		}
		market.IsActive = false
		if err := m.repos.Market.Update(ctx, market); err != nil {
			return err
		}
		m.logger.WithFields(logrus.Fields{
			"match":      match.ID,
			"bookmaker":  bookmaker.ExternalID,
			"market_key": market.ProviderKey,
		}).Info("Market vanished from bookmaker payload, deactivating")
	}

	return nil
}

func (m *Merger) mergeMarket(ctx context.Context, match *models.Match, bookmaker *models.Bookmaker, category *models.MarketCategory, mk feed.MarketOdds, summary *Summary) error {
	now := m.now()
	line := m.parseLine(mk)

	market, err := m.repos.Market.GetByUniqueKey(ctx, match.ID, bookmaker.ID, mk.Key)
	switch {
	case errors.Is(err, models.ErrNotFound):
		market = &models.Market{
			ID:           uuid.New(),
			MatchID:      match.ID,
			BookmakerID:  bookmaker.ID,
			ProviderKey:  mk.Key,
			CategoryID:   category.ID,
			Line:         line,
			IsActive:     true,
			LastSyncedAt: &now,
		}
		if err := m.repos.Market.Create(ctx, market); err != nil {
			return err
		}
		summary.MarketsCreated++
	case err != nil:
		return err
	default:
		market.CategoryID = category.ID
		if line != nil {
			market.Line = line
		}
		market.IsActive = true
		market.LastSyncedAt = &now
		if err := m.repos.Market.Update(ctx, market); err != nil {
			return err
		}
		summary.MarketsUpdated++
	}

	keep := make([]string, 0, len(mk.Outcomes))
	for _, oc := range mk.Outcomes {
		price, err := decimal.NewFromString(oc.Price)
		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"market":  market.ID,
				"outcome": oc.Name,
				"price":   oc.Price,
			}).Warn("Unparseable outcome price, skipping")
			continue
		}
		keep = append(keep, oc.Name)

		if err := m.mergeOutcome(ctx, market, oc.Name, price, summary); err != nil {
			return err
		}
	}

	deactivated, err := m.repos.Outcome.DeactivateMissing(ctx, market.ID, keep)
	if err != nil {
		return err
	}
	summary.OutcomesDeactivated += deactivated

	return nil
}

func (m *Merger) mergeOutcome(ctx context.Context, market *models.Market, name string, price decimal.Decimal, summary *Summary) error {
	existing, err := m.repos.Outcome.GetByMarketAndName(ctx, market.ID, name)
	switch {
	case errors.Is(err, models.ErrNotFound):
		outcome := &models.MarketOutcome{
			ID:       uuid.New(),
			MarketID: market.ID,
			Name:     name,
			Price:    price,
			IsActive: true,
			Result:   models.OutcomeResultUnresolved,
		}
		if err := m.repos.Outcome.Create(ctx, outcome); err != nil {
			return err
		}
		summary.OutcomesCreated++
	case err != nil:
		return err
	default:
		// Write only on actual change so a repeated payload is a no-op
		if existing.Price.Equal(price) && existing.IsActive {
			return nil
		}
		existing.Price = price
		existing.IsActive = true
		if err := m.repos.Outcome.Update(ctx, existing); err != nil {
			return err
		}
		summary.OutcomesUpdated++
	}

	return nil
}

func (m *Merger) parseLine(mk feed.MarketOdds) *decimal.Decimal {
	if mk.Line == "" {
		return nil
	}

	line, err := decimal.NewFromString(mk.Line)
	if err != nil {
		m.logger.WithFields(logrus.Fields{
			"market_key": mk.Key,
			"line":       mk.Line,
		}).Warn("Unparseable market line, leaving unset")
		return nil
	}
	return &line
}
