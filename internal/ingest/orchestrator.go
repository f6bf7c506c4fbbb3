// Package ingest implements the fan-out/fan-in ingestion run: discover
// active competitions, fan out per-competition fixture fetches, immediately
// fan out per-fixture odds fetches, then sweep for fixtures whose odds went
// stale. Sub-task failures are isolated; one competition or fixture cannot
// sink a run.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitchside/internal/config"
	"github.com/yourusername/pitchside/internal/feed"
	"github.com/yourusername/pitchside/internal/merge"
	"github.com/yourusername/pitchside/internal/metrics"
	"github.com/yourusername/pitchside/internal/models"
	"github.com/yourusername/pitchside/internal/repository"
)

const activeCompetitionsCacheKey = "active_competitions"

// Orchestrator drives one full ingestion run
type Orchestrator struct {
	client feed.Client
	merger *merge.Merger
	repos  *repository.Repositories
	cache  *gocache.Cache
	cfg    config.IngestionConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewOrchestrator creates an ingestion orchestrator
func NewOrchestrator(client feed.Client, merger *merge.Merger, repos *repository.Repositories, cfg config.IngestionConfig, log *logrus.Logger) *Orchestrator {
	ttl := time.Duration(cfg.CompetitionCacheTTLMinutes) * time.Minute
	return &Orchestrator{
		client: client,
		merger: merger,
		repos:  repos,
		cache:  gocache.New(ttl, 2*ttl),
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// Run executes one ingestion pass: competition discovery, parallel fixture
// fetches with immediate odds dispatch, then the staleness fan-in sweep.
func (o *Orchestrator) Run(ctx context.Context) error {
	metrics.IngestionRunsTotal.Inc()
	start := o.now()
	defer func() {
		metrics.IngestionRunDuration.Observe(time.Since(start).Seconds())
	}()

	competitions, err := o.activeCompetitions(ctx)
	if err != nil {
		return fmt.Errorf("competition discovery failed: %w", err)
	}
	if len(competitions) == 0 {
		o.logger.Warn("No active competitions, nothing to ingest")
		return nil
	}

	o.logger.WithField("competitions", len(competitions)).Info("Starting ingestion run")

	// Dedicated odds worker pool. Fixture tasks enqueue into it immediately
	// so odds fetching never waits for the whole competition pass.
	oddsTasks := make(chan *models.Match)
	var oddsWG sync.WaitGroup
	for i := 0; i < o.cfg.FetchWorkers; i++ {
		go func() {
			for match := range oddsTasks {
				o.fetchOdds(ctx, match)
				oddsWG.Done()
			}
		}()
	}

	var queueMu sync.Mutex
	queued := make(map[uuid.UUID]bool)
	enqueue := func(match *models.Match) bool {
		queueMu.Lock()
		if queued[match.ID] {
			queueMu.Unlock()
			return false
		}
		queued[match.ID] = true
		queueMu.Unlock()

		oddsWG.Add(1)
		oddsTasks <- match
		return true
	}

	var fixtureWG sync.WaitGroup
	sem := make(chan struct{}, o.cfg.FetchWorkers)
	for _, competition := range competitions {
		competition := competition
		fixtureWG.Add(1)
		sem <- struct{}{}
		go func() {
			defer fixtureWG.Done()
			defer func() { <-sem }()
			o.fetchFixtures(ctx, competition, enqueue)
		}()
	}
	fixtureWG.Wait()

	// Fan-in: the staleness sweep runs only after every fixture task has
	// reported, catching fixtures whose immediate dispatch was skipped or
	// failed in an earlier run.
	o.requeueStale(ctx, enqueue)

	oddsWG.Wait()
	close(oddsTasks)

	o.logger.WithFields(logrus.Fields{
		"fixtures": len(queued),
		"duration": time.Since(start).String(),
	}).Info("Ingestion run complete")

	return nil
}

// activeCompetitions returns the active competition set, refreshed from the
// provider at most once per cache TTL
func (o *Orchestrator) activeCompetitions(ctx context.Context) ([]*models.Competition, error) {
	if cached, ok := o.cache.Get(activeCompetitionsCacheKey); ok {
		return cached.([]*models.Competition), nil
	}

	payloads, err := o.client.Competitions(ctx)
	if err != nil {
		// The stored active set still lets the run proceed
		o.logger.WithError(err).Warn("Competition listing fetch failed, using stored set")
		return o.repos.Competition.GetActive(ctx)
	}

	if _, err := o.merger.MergeCompetitions(ctx, payloads); err != nil {
		return nil, err
	}

	active, err := o.repos.Competition.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	o.cache.Set(activeCompetitionsCacheKey, active, gocache.DefaultExpiration)
	return active, nil
}

// fetchFixtures pulls one competition's fixtures for the lead window, merges
// them, and immediately dispatches odds tasks for scheduled fixtures with a
// known kickoff
func (o *Orchestrator) fetchFixtures(ctx context.Context, competition *models.Competition, enqueue func(*models.Match) bool) {
	log := o.logger.WithField("competition", competition.ExternalID)

	from := o.now()
	payloads, err := o.client.FixturesByCompetition(ctx, competition.ExternalID, from, from.Add(o.cfg.LeadWindow()))
	if err != nil {
		log.WithError(err).Error("Fixture fetch failed")
		return
	}

	matchIDs, err := o.merger.MergeFixtures(ctx, competition, payloads)
	if err != nil {
		log.WithError(err).Error("Fixture merge failed")
		return
	}

	dispatched := 0
	for _, id := range matchIDs {
		match, err := o.repos.Match.GetByID(ctx, id)
		if err != nil {
			log.WithError(err).WithField("match_id", id).Error("Failed to reload merged match")
			continue
		}
		if match.Status != models.MatchStatusScheduled || match.KickoffAt == nil {
			continue
		}
		if enqueue(match) {
			dispatched++
		}
	}

	log.WithFields(logrus.Fields{
		"fixtures":        len(matchIDs),
		"odds_dispatched": dispatched,
	}).Debug("Competition fixtures merged")
}

// requeueStale re-queues scheduled fixtures whose odds are missing or older
// than the staleness threshold
func (o *Orchestrator) requeueStale(ctx context.Context, enqueue func(*models.Match) bool) {
	cutoff := o.now().Add(-o.cfg.StalenessThreshold())
	stale, err := o.repos.Match.GetStaleOdds(ctx, cutoff)
	if err != nil {
		o.logger.WithError(err).Error("Staleness sweep query failed")
		return
	}

	requeued := 0
	for _, match := range stale {
		if enqueue(match) {
			requeued++
			metrics.StaleFixturesRequeuedTotal.Inc()
		}
	}

	if requeued > 0 {
		o.logger.WithField("fixtures", requeued).Info("Staleness sweep re-queued fixtures")
	}
}

// fetchOdds pulls and merges one fixture's odds. An empty odds response is a
// normal condition for fixtures far from kickoff.
func (o *Orchestrator) fetchOdds(ctx context.Context, match *models.Match) {
	log := o.logger.WithField("match_id", match.ID)

	payload, err := o.client.OddsByFixture(ctx, match.ExternalID)
	if err != nil {
		metrics.OddsFetchesTotal.WithLabelValues("error").Inc()
		log.WithError(err).Error("Odds fetch failed")
		return
	}

	if len(payload.Bookmakers) == 0 {
		metrics.OddsFetchesTotal.WithLabelValues("empty").Inc()
		log.Debug("No odds offered yet for fixture")
	} else {
		summary, err := o.merger.MergeOdds(ctx, match, payload)
		if err != nil {
			metrics.OddsFetchesTotal.WithLabelValues("error").Inc()
			log.WithError(err).Error("Odds merge failed")
			return
		}
		metrics.OddsFetchesTotal.WithLabelValues("merged").Inc()
		metrics.MarketsCreatedTotal.Add(float64(summary.MarketsCreated))
		metrics.OutcomesCreatedTotal.Add(float64(summary.OutcomesCreated))
		metrics.OutcomesDeactivatedTotal.Add(float64(summary.OutcomesDeactivated))
	}

	if err := o.repos.Match.TouchOddsSync(ctx, match.ID, o.now()); err != nil {
		log.WithError(err).Error("Failed to record odds sync stamp")
	}
}

// SyncMatchOdds re-fetches odds for a single fixture, used by the operator
// surface to re-drive one entity
func (o *Orchestrator) SyncMatchOdds(ctx context.Context, matchID uuid.UUID) error {
	match, err := o.repos.Match.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	o.fetchOdds(ctx, match)
	return nil
}
