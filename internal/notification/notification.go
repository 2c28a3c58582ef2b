package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const (
	// KindSignIn is sent after a successful login.
	KindSignIn = "sign_in"
	// KindSignOut is sent after a logout.
	KindSignOut = "sign_out"
	// KindDeposit is sent after cash is credited to an account.
	KindDeposit = "deposit"
	// KindWithdrawal is sent after cash is debited from an account.
	KindWithdrawal = "withdrawal"
	// KindCustomerCreated is sent when an officer opens a customer record.
	KindCustomerCreated = "customer_created"

	subjectPrefix = "bank.notifications."
)

// Message describes a notification payload.
type Message struct {
	Kind        string `json:"kind"`
	Destination string `json:"destination"`
	Body        string `json:"body"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}

// NATSNotifier publishes notifications as JSON on bank.notifications.<kind>.
type NATSNotifier struct {
	conn *nats.Conn
}

// NewNATSNotifier wraps an established NATS connection.
func NewNATSNotifier(conn *nats.Conn) *NATSNotifier {
	return &NATSNotifier{conn: conn}
}

// Send publishes the message. Without a connection it silently does nothing.
func (n *NATSNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.conn == nil {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return n.conn.Publish(Subject(message.Kind), data)
}

// Subject returns the NATS subject used for kind.
func Subject(kind string) string {
	return subjectPrefix + kind
}
