package settle

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitchside/internal/feed"
	"github.com/yourusername/pitchside/internal/merge"
	"github.com/yourusername/pitchside/internal/models"
	"github.com/yourusername/pitchside/internal/repository"
)

// ScoreSync moves matches through the lifecycle based on the provider's live
// and finished score feeds. Finishing a match triggers settlement inline.
type ScoreSync struct {
	client feed.Client
	repos  *repository.Repositories
	engine *Engine
	logger *logrus.Logger
	now    func() time.Time
}

// NewScoreSync creates a score sync task
func NewScoreSync(client feed.Client, repos *repository.Repositories, engine *Engine, log *logrus.Logger) *ScoreSync {
	return &ScoreSync{
		client: client,
		repos:  repos,
		engine: engine,
		now:    time.Now,
		logger: log,
	}
}

// Run fetches current scores and applies status transitions to every
// in-flight match the provider reports on
func (s *ScoreSync) Run(ctx context.Context) error {
	index := make(map[string]feed.FixturePayload)

	live, err := s.client.LiveScores(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Live score fetch failed")
	}
	for _, p := range live {
		index[p.ID] = p
	}

	finished, err := s.client.FinishedScores(ctx, s.now())
	if err != nil {
		s.logger.WithError(err).Warn("Finished score fetch failed")
	}
	for _, p := range finished {
		index[p.ID] = p
	}

	if len(index) == 0 {
		return nil
	}

	candidates, err := s.inFlightMatches(ctx)
	if err != nil {
		return err
	}

	for _, match := range candidates {
		payload, ok := index[match.ExternalID]
		if !ok {
			continue
		}
		if err := s.apply(ctx, match, payload); err != nil {
			// One match's failure must not block its siblings
			s.logger.WithError(err).WithField("match_id", match.ID).Error("Score sync failed for match")
		}
	}

	return nil
}

func (s *ScoreSync) inFlightMatches(ctx context.Context) ([]*models.Match, error) {
	scheduled, err := s.repos.Match.GetByStatus(ctx, models.MatchStatusScheduled)
	if err != nil {
		return nil, err
	}
	live, err := s.repos.Match.GetByStatus(ctx, models.MatchStatusLive)
	if err != nil {
		return nil, err
	}
	return append(scheduled, live...), nil
}

func (s *ScoreSync) apply(ctx context.Context, match *models.Match, p feed.FixturePayload) error {
	status, ok := merge.StatusFromProvider(p.Status)
	if !ok {
		s.logger.WithFields(logrus.Fields{
			"match_id": match.ID,
			"status":   p.Status,
		}).Debug("Unknown provider status in score feed, skipping")
		return nil
	}

	if updated := merge.ParseFeedTimestamp(p.UpdatedAt); updated != nil {
		match.FeedUpdatedAt = updated
	}

	switch status {
	case models.MatchStatusFinished:
		if !match.CanTransitionTo(models.MatchStatusFinished) {
			return nil
		}
		return s.engine.FinishMatch(ctx, match, p.HomeScore, p.AwayScore, "provider")

	case models.MatchStatusLive:
		if !match.CanTransitionTo(models.MatchStatusLive) {
			return s.recordScore(ctx, match, p)
		}
		match.Status = models.MatchStatusLive
		return s.recordScore(ctx, match, p)

	case models.MatchStatusCancelled:
		if !match.CanTransitionTo(models.MatchStatusCancelled) {
			return nil
		}
		return s.engine.VoidMatch(ctx, match)

	case models.MatchStatusPostponed:
		if !match.CanTransitionTo(models.MatchStatusPostponed) {
			return nil
		}
		match.Status = models.MatchStatusPostponed
		now := s.now()
		match.LastScoreSyncAt = &now
		return s.repos.Match.Update(ctx, match)
	}

	return nil
}

// recordScore writes the in-play score observation. The fallback finisher
// relies on these as the last observed score for stuck matches.
func (s *ScoreSync) recordScore(ctx context.Context, match *models.Match, p feed.FixturePayload) error {
	if p.HomeScore != nil {
		match.HomeScore = p.HomeScore
	}
	if p.AwayScore != nil {
		match.AwayScore = p.AwayScore
	}
	now := s.now()
	match.LastScoreSyncAt = &now
	return s.repos.Match.Update(ctx, match)
}
