// Package settle implements the match lifecycle state machine and the
// four-stage settlement pipeline that turns a finished match into resolved
// outcomes, settled wagers, settled tickets and wallet credits. Every stage
// is idempotent: re-running settlement against an unchanged final score is a
// no-op.
package settle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitchside/internal/logger"
	"github.com/yourusername/pitchside/internal/metrics"
	"github.com/yourusername/pitchside/internal/models"
	"github.com/yourusername/pitchside/internal/notify"
	"github.com/yourusername/pitchside/internal/repository"
)

// Engine drives settlement for finished matches
type Engine struct {
	repos    *repository.Repositories
	logger   *logrus.Logger
	audit    *logger.AuditLogger
	notifier notify.Notifier
	now      func() time.Time
}

// NewEngine creates a settlement engine
func NewEngine(repos *repository.Repositories, log *logrus.Logger, audit *logger.AuditLogger, notifier notify.Notifier) *Engine {
	return &Engine{
		repos:    repos,
		logger:   log,
		audit:    audit,
		notifier: notifier,
		now:      time.Now,
	}
}

// SettleMatch runs the full settlement pipeline for one FINISHED match. The
// stages run strictly in order; each is guarded so that repeated invocation
// cannot double-settle or double-pay.
func (e *Engine) SettleMatch(ctx context.Context, match *models.Match) error {
	if match.Status != models.MatchStatusFinished {
		return fmt.Errorf("match %s is %s, not FINISHED", match.ID, match.Status)
	}

	log := e.logger.WithField("match_id", match.ID)
	log.Info("Settling match")

	if err := e.resolveOutcomes(ctx, match); err != nil {
		return fmt.Errorf("outcome resolution failed: %w", err)
	}
	if err := e.settleWagers(ctx, match); err != nil {
		return fmt.Errorf("wager settlement failed: %w", err)
	}
	if err := e.settleTickets(ctx, match); err != nil {
		return fmt.Errorf("ticket settlement failed: %w", err)
	}

	return nil
}

// resolveOutcomes computes WON/LOST/PUSH for every outcome under the match.
// A match force-finished without any observed score resolves everything to
// PUSH so stakes flow back instead of guessing a result. Outcomes whose
// category has no rule are pushed as well, with a warning.
func (e *Engine) resolveOutcomes(ctx context.Context, match *models.Match) error {
	markets, err := e.repos.Market.GetByMatch(ctx, match.ID)
	if err != nil {
		return err
	}

	for _, market := range markets {
		category, err := e.repos.Category.GetByID(ctx, market.CategoryID)
		if err != nil {
			return fmt.Errorf("failed to resolve category for market %s: %w", market.ID, err)
		}

		outcomes, err := e.repos.Outcome.GetByMarket(ctx, market.ID)
		if err != nil {
			return err
		}

		for _, outcome := range outcomes {
			if outcome.IsResolved() {
				continue
			}

			result := e.resolveOne(match, category.Code, outcome, market)
			if err := e.repos.Outcome.SetResult(ctx, outcome.ID, result); err != nil {
				return fmt.Errorf("failed to resolve outcome %s: %w", outcome.ID, err)
			}
		}
	}

	return nil
}

func (e *Engine) resolveOne(match *models.Match, code models.CategoryCode, outcome *models.MarketOutcome, market *models.Market) models.OutcomeResult {
	if !match.HasFinalScore() {
		e.logger.WithFields(logrus.Fields{
			"match_id":   match.ID,
			"outcome_id": outcome.ID,
		}).Warn("Match finished without observed score, pushing outcome")
		return models.OutcomeResultPush
	}

	result, ok := ResolveOutcome(code, outcome.Name, market.Line, *match.HomeScore, *match.AwayScore)
	if !ok {
		e.logger.WithFields(logrus.Fields{
			"match_id":   match.ID,
			"outcome_id": outcome.ID,
			"category":   code,
			"name":       outcome.Name,
		}).Warn("No resolution rule for outcome, pushing")
		return models.OutcomeResultPush
	}
	return result
}

// settleWagers transitions every PENDING wager on the match according to its
// outcome's resolution. The repository's check-and-set makes an
// already-settled wager a silent no-op.
func (e *Engine) settleWagers(ctx context.Context, match *models.Match) error {
	wagers, err := e.repos.Wager.GetPendingByMatch(ctx, match.ID)
	if err != nil {
		return err
	}

	for _, wager := range wagers {
		outcome, err := e.repos.Outcome.GetByID(ctx, wager.OutcomeID)
		if err != nil {
			return fmt.Errorf("failed to load outcome for wager %s: %w", wager.ID, err)
		}
		if !outcome.IsResolved() {
			e.logger.WithFields(logrus.Fields{
				"wager_id":   wager.ID,
				"outcome_id": outcome.ID,
			}).Warn("Wager references unresolved outcome, leaving pending")
			continue
		}

		status := wagerStatusFor(outcome.Result)
		wager.Status = status
		payout := wager.Payout()

		settledAt := e.now()
		settled, err := e.repos.Wager.Settle(ctx, wager.ID, status, payout, settledAt)
		if err != nil {
			return err
		}
		if !settled {
			// Already settled by a previous run
			continue
		}

		metrics.WagersSettledTotal.WithLabelValues(string(status)).Inc()
		e.audit.LogWagerSettlement(
			wager.ID.String(), wager.TicketID.String(), wager.OutcomeID.String(),
			string(models.WagerStatusPending), string(status), payout.String(), settledAt,
		)
	}

	return nil
}

func wagerStatusFor(result models.OutcomeResult) models.WagerStatus {
	switch result {
	case models.OutcomeResultWon:
		return models.WagerStatusWon
	case models.OutcomeResultLost:
		return models.WagerStatusLost
	default:
		return models.WagerStatusVoid
	}
}

// settleTickets aggregates wager results per ticket. A ticket with any
// unsettled wager, for instance a leg on a match still in play, stays
// PENDING until a later settlement run completes it.
func (e *Engine) settleTickets(ctx context.Context, match *models.Match) error {
	tickets, err := e.repos.Ticket.GetPendingByMatch(ctx, match.ID)
	if err != nil {
		return err
	}

	for _, ticket := range tickets {
		if err := e.settleTicket(ctx, ticket); err != nil {
			e.logger.WithError(err).WithField("ticket_id", ticket.ID).Error("Failed to settle ticket")
		}
	}

	return nil
}

// SettleTicket re-drives one ticket through aggregation and payout. Exposed
// for the reconciliation sweep and operator triggers.
func (e *Engine) SettleTicket(ctx context.Context, ticketID uuid.UUID) error {
	ticket, err := e.repos.Ticket.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	return e.settleTicket(ctx, ticket)
}

func (e *Engine) settleTicket(ctx context.Context, ticket *models.Ticket) error {
	wagers, err := e.repos.Wager.GetByTicket(ctx, ticket.ID)
	if err != nil {
		return err
	}

	status := models.ResolveStatus(wagers)
	if status == models.TicketStatusPending {
		return nil
	}

	payout := models.TicketPayout(ticket, wagers)

	if ticket.Status == models.TicketStatusPending {
		settledAt := e.now()
		settled, err := e.repos.Ticket.Settle(ctx, ticket.ID, status, payout, settledAt)
		if err != nil {
			return err
		}
		if settled {
			ticket.Status = status
			ticket.TotalPayout = payout
			metrics.TicketsSettledTotal.WithLabelValues(string(status)).Inc()
			e.audit.LogTicketSettlement(
				ticket.ID.String(), ticket.UserID.String(), string(status),
				ticket.TotalStake.String(), payout.String(),
			)
			// A losing ticket never reaches the payment path, so its
			// notification goes out here, on the settling run only
			if status == models.TicketStatusLost {
				e.notifyTicket(ctx, ticket, notify.TemplateTicketLost, status, payout)
			}
		}
	}

	return e.payTicket(ctx, ticket, status)
}

// payTicket applies the wallet mutation for a settled ticket. The credit is
// idempotent by ledger reference, and the paid stamp closes the loop so a
// crash between the two is healed by the next run.
func (e *Engine) payTicket(ctx context.Context, ticket *models.Ticket, status models.TicketStatus) error {
	if status == models.TicketStatusLost {
		return nil
	}
	payout := ticket.TotalPayout
	if payout.IsZero() {
		return nil
	}
	if ticket.PaidAt != nil {
		return nil
	}

	operation := models.LedgerOperationCredit
	template := notify.TemplateTicketWon
	if status == models.TicketStatusVoid {
		operation = models.LedgerOperationRefund
		template = notify.TemplateTicketVoid
	}

	wallet, err := e.repos.Wallet.GetOrCreateByUser(ctx, ticket.UserID)
	if err != nil {
		return err
	}

	reference := fmt.Sprintf("ticket:%s", ticket.ID)
	newBalance, err := e.repos.Wallet.Credit(ctx, ticket.UserID, payout, operation, reference,
		fmt.Sprintf("settlement payout for ticket %s", ticket.ID))
	if err != nil {
		return err
	}

	paid, err := e.repos.Ticket.MarkPaid(ctx, ticket.ID, e.now())
	if err != nil {
		return err
	}
	if !paid {
		return nil
	}

	metrics.WalletCreditsTotal.Inc()
	e.audit.LogWalletMutation(
		wallet.ID.String(), ticket.UserID.String(), string(operation),
		payout.String(), newBalance.String(), reference,
	)

	e.notifyTicket(ctx, ticket, template, status, payout)

	return nil
}

// notifyTicket dispatches a settlement notification. Best effort: financial
// state is committed regardless of delivery.
func (e *Engine) notifyTicket(ctx context.Context, ticket *models.Ticket, template string, status models.TicketStatus, payout decimal.Decimal) {
	if err := e.notifier.Notify(ctx, ticket.UserID, template, map[string]interface{}{
		"ticket_id": ticket.ID.String(),
		"status":    string(status),
		"payout":    payout.String(),
	}); err != nil {
		e.logger.WithError(err).WithField("ticket_id", ticket.ID).Warn("Notification delivery failed")
	}
}

// VoidMatch absorbs a cancelled match: the lifecycle moves to CANCELLED,
// every outcome pushes, and all wagers are voided so stakes flow back.
func (e *Engine) VoidMatch(ctx context.Context, match *models.Match) error {
	if !match.CanTransitionTo(models.MatchStatusCancelled) {
		return fmt.Errorf("match %s cannot be cancelled from %s", match.ID, match.Status)
	}

	now := e.now()
	match.Status = models.MatchStatusCancelled
	match.LastScoreSyncAt = &now
	if err := e.repos.Match.Update(ctx, match); err != nil {
		return err
	}

	if err := e.pushAllOutcomes(ctx, match); err != nil {
		return fmt.Errorf("outcome void failed: %w", err)
	}
	if err := e.settleWagers(ctx, match); err != nil {
		return fmt.Errorf("wager void failed: %w", err)
	}
	return e.settleTickets(ctx, match)
}

func (e *Engine) pushAllOutcomes(ctx context.Context, match *models.Match) error {
	markets, err := e.repos.Market.GetByMatch(ctx, match.ID)
	if err != nil {
		return err
	}
	for _, market := range markets {
		outcomes, err := e.repos.Outcome.GetByMarket(ctx, market.ID)
		if err != nil {
			return err
		}
		for _, outcome := range outcomes {
			if outcome.IsResolved() {
				continue
			}
			if err := e.repos.Outcome.SetResult(ctx, outcome.ID, models.OutcomeResultPush); err != nil {
				return err
			}
		}
	}
	return nil
}

// FinishMatch transitions a match to FINISHED with the given score and runs
// settlement. The trigger label distinguishes provider-reported finishes from
// the time-based fallback in metrics.
func (e *Engine) FinishMatch(ctx context.Context, match *models.Match, homeScore, awayScore *int, trigger string) error {
	if !match.CanTransitionTo(models.MatchStatusFinished) {
		return fmt.Errorf("match %s cannot finish from %s", match.ID, match.Status)
	}

	now := e.now()
	match.Status = models.MatchStatusFinished
	if homeScore != nil {
		match.HomeScore = homeScore
	}
	if awayScore != nil {
		match.AwayScore = awayScore
	}
	match.LastScoreSyncAt = &now

	if err := e.repos.Match.Update(ctx, match); err != nil {
		return err
	}
	metrics.MatchesFinishedTotal.WithLabelValues(trigger).Inc()

	return e.SettleMatch(ctx, match)
}
