// Package notify delivers run results to the operator over a fallback chain
// of channels: chat first, then email, then SMS. Losing a notification is
// less damaging than losing reconciliation state, so delivery failure is
// never fatal to a run.
package notify

import (
	"context"
	"fmt"

	"github.com/bshumway9/stock-split-checker/pkg/logger"
)

// Message is one operator notification.
type Message struct {
	Subject string
	Body    string
	// Short is a compact form for length-limited channels (SMS).
	Short string
}

// Channel delivers a message over one transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Notifier cascades across channels in order until one delivers.
type Notifier struct {
	channels []Channel
	logger   *logger.Logger
}

// NewNotifier creates a notifier over the given channels, tried in order.
func NewNotifier(log *logger.Logger, channels ...Channel) *Notifier {
	return &Notifier{channels: channels, logger: log}
}

// Send tries each channel in order and stops at the first success. When every
// channel fails the exhaustion is logged at the highest severity and an error
// is returned for the caller's log; the caller should still treat the run as
// completed.
func (n *Notifier) Send(ctx context.Context, msg Message) error {
	if len(n.channels) == 0 {
		return fmt.Errorf("no notification channels configured")
	}

	for _, ch := range n.channels {
		err := ch.Send(ctx, msg)
		if err == nil {
			n.logger.Info("Notification sent", logger.StringField("channel", ch.Name()))
			return nil
		}
		n.logger.Error("Notification channel failed, falling back",
			logger.StringField("channel", ch.Name()), logger.ErrorField(err))
	}

	n.logger.Error("CRITICAL: all notification channels failed - manual check required")
	return fmt.Errorf("all %d notification channels failed", len(n.channels))
}
