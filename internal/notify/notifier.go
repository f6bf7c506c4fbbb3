// Package notify defines the outbound user-notification capability used by
// settlement. Delivery is best effort: financial state is authoritative and a
// failed notification never rolls back a wallet mutation.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Notification templates emitted by settlement
const (
	TemplateTicketWon  = "ticket_won"
	TemplateTicketVoid = "ticket_void"
	TemplateTicketLost = "ticket_lost"
)

// Notifier dispatches a templated message to a user
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, template string, payload map[string]interface{}) error
}

// LogNotifier writes notifications to the application log. It stands in for a
// real delivery channel in development and single-binary deployments.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification
func (n *LogNotifier) Notify(_ context.Context, userID uuid.UUID, template string, payload map[string]interface{}) error {
	n.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"template": template,
		"payload":  payload,
	}).Info("Notification dispatched")
	return nil
}
