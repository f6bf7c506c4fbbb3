// Package sweep implements the reconciliation pass that heals fixtures and
// tickets the happy path missed: matches stuck past their completion window
// are force-finished with the last observed score, and pending tickets on
// finished matches are re-driven through settlement.
package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitchside/internal/config"
	"github.com/yourusername/pitchside/internal/metrics"
	"github.com/yourusername/pitchside/internal/models"
	"github.com/yourusername/pitchside/internal/repository"
	"github.com/yourusername/pitchside/internal/settle"
)

// Reconciler drives one reconciliation pass
type Reconciler struct {
	repos  *repository.Repositories
	engine *settle.Engine
	cfg    config.SettlementConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewReconciler creates a reconciliation sweep
func NewReconciler(repos *repository.Repositories, engine *settle.Engine, cfg config.SettlementConfig, log *logrus.Logger) *Reconciler {
	return &Reconciler{
		repos:  repos,
		engine: engine,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// Run executes both recovery phases. Failures on individual matches or
// tickets are logged and skipped so one bad row cannot stall recovery of the
// rest.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.finishOverdue(ctx); err != nil {
		return err
	}
	return r.redriveTickets(ctx)
}

// finishOverdue force-finishes matches whose kickoff is further in the past
// than the assumed match duration and for which the provider never reported a
// finish. The last observed in-play score stands as final; a match with no
// observed score at all settles everything as a push.
func (r *Reconciler) finishOverdue(ctx context.Context) error {
	cutoff := r.now().Add(-r.cfg.AssumedDuration())
	overdue, err := r.repos.Match.GetUnfinishedPastKickoff(ctx, cutoff)
	if err != nil {
		return err
	}

	// Settlement is write-heavy, so the pool stays deliberately small
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.cfg.SettleWorkers)
	for _, match := range overdue {
		match := match
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			log := r.logger.WithFields(logrus.Fields{
				"match_id": match.ID,
				"status":   match.Status,
				"kickoff":  match.KickoffAt,
			})
			log.Warn("Match stuck past completion window, force-finishing")

			if err := r.engine.FinishMatch(ctx, match, match.HomeScore, match.AwayScore, "fallback"); err != nil {
				log.WithError(err).Error("Failed to force-finish match")
				return
			}
			metrics.SweepRecoveriesTotal.WithLabelValues("overdue_match").Inc()
		}()
	}
	wg.Wait()

	return nil
}

// redriveTickets re-runs ticket aggregation for pending tickets on finished
// matches. This heals tickets whose settlement crashed between wager and
// ticket stages, and tickets whose last leg finished on a match settled
// before an earlier leg's.
func (r *Reconciler) redriveTickets(ctx context.Context) error {
	finished, err := r.repos.Match.GetByStatus(ctx, models.MatchStatusFinished)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, match := range finished {
		tickets, err := r.repos.Ticket.GetPendingByMatch(ctx, match.ID)
		if err != nil {
			r.logger.WithError(err).WithField("match_id", match.ID).Error("Failed to list pending tickets")
			continue
		}

		for _, ticket := range tickets {
			if seen[ticket.ID.String()] {
				continue
			}
			seen[ticket.ID.String()] = true

			if err := r.engine.SettleTicket(ctx, ticket.ID); err != nil {
				r.logger.WithError(err).WithField("ticket_id", ticket.ID).Error("Failed to re-drive ticket")
				continue
			}

			// Only count tickets the re-drive actually moved
			reloaded, err := r.repos.Ticket.GetByID(ctx, ticket.ID)
			if err == nil && reloaded.Status != models.TicketStatusPending {
				metrics.SweepRecoveriesTotal.WithLabelValues("stuck_ticket").Inc()
				r.logger.WithFields(logrus.Fields{
					"ticket_id": ticket.ID,
					"status":    reloaded.Status,
				}).Info("Recovered stuck ticket")
			}
		}
	}

	return nil
}
