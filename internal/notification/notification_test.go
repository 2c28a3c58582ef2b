package notification

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerNotifierWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := n.Send(context.Background(), Message{Kind: KindSignIn, Destination: "1001", Body: "welcome"})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"kind":"sign_in"`)
	assert.Contains(t, buf.String(), `"destination":"1001"`)
}

func TestNotifiersWithoutBackendAreNoop(t *testing.T) {
	var logNotifier *LoggerNotifier
	assert.NoError(t, logNotifier.Send(context.Background(), Message{Kind: KindSignOut}))
	assert.NoError(t, NewNATSNotifier(nil).Send(context.Background(), Message{Kind: KindSignOut}))
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "bank.notifications.deposit", Subject(KindDeposit))
}
