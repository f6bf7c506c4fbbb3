// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides a dedicated audit trail for financial state changes.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogWagerSettlement logs a wager status transition during settlement.
func (al *AuditLogger) LogWagerSettlement(wagerID, ticketID, outcomeID string, oldStatus, newStatus string, payout string, settledAt time.Time) {
	al.WithFields(logrus.Fields{
		"wager_id":   wagerID,
		"ticket_id":  ticketID,
		"outcome_id": outcomeID,
		"old_status": oldStatus,
		"new_status": newStatus,
		"payout":     payout,
		"settled_at": settledAt.Unix(),
	}).Info("Wager settled")
}

// LogTicketSettlement logs an aggregate ticket settlement.
func (al *AuditLogger) LogTicketSettlement(ticketID, userID string, status string, totalStake, totalPayout string) {
	al.WithFields(logrus.Fields{
		"ticket_id":    ticketID,
		"user_id":      userID,
		"status":       status,
		"total_stake":  totalStake,
		"total_payout": totalPayout,
	}).Info("Ticket settled")
}

// LogWalletMutation logs a wallet balance change with its ledger reference.
func (al *AuditLogger) LogWalletMutation(walletID, userID string, operation string, amount, newBalance string, reference string) {
	al.WithFields(logrus.Fields{
		"wallet_id":   walletID,
		"user_id":     userID,
		"operation":   operation,
		"amount":      amount,
		"new_balance": newBalance,
		"reference":   reference,
	}).Info("Wallet mutated")
}

// LogManualTrigger logs an operator-initiated re-run of ingestion or settlement.
func (al *AuditLogger) LogManualTrigger(entity, entityID, action, triggeredBy string) {
	al.WithFields(logrus.Fields{
		"entity":       entity,
		"entity_id":    entityID,
		"action":       action,
		"triggered_by": triggeredBy,
	}).Warn("Manual trigger executed")
}
