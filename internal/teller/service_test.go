package teller

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobile-bank/mobile_bank/internal/docstore"
	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/logging"
	"github.com/mobile-bank/mobile_bank/internal/notification"
)

var (
	checking = identity.Identity{AccountID: "1001", Role: identity.RoleChecking}
	saving   = identity.Identity{AccountID: "1002", Role: identity.RoleSaving}
	mortgage = identity.Identity{AccountID: "1003", Role: identity.RoleMortgage}
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
}

func (r *recordingNotifier) Send(_ context.Context, m notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return nil
}

func newTestService(t *testing.T) (*Service, docstore.Store, *recordingNotifier) {
	t.Helper()
	ctx := context.Background()
	store, _ := docstore.NewMemoryStore()
	require.NoError(t, store.PutDocument(ctx, identity.Collection, "1001", docstore.Document{
		"checking": map[string]any{"cardNumber": "4000-1001", "balance": "100.10"},
	}))
	require.NoError(t, store.PutDocument(ctx, identity.Collection, "1002", docstore.Document{
		"saving": map[string]any{"cardNumber": "5000-1002"},
	}))
	require.NoError(t, store.PutDocument(ctx, identity.Collection, "1003", docstore.Document{
		"mortgage": map[string]any{"cardNumber": "7000-1003"},
	}))
	n := &recordingNotifier{}
	return NewService(store, NewMemoryRepository(), n, logging.Discard()), store, n
}

func TestDepositCreditsBalance(t *testing.T) {
	svc, store, n := newTestService(t)
	ctx := context.Background()

	tx, err := svc.Deposit(ctx, checking, decimal.RequireFromString("0.20"))
	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(decimal.RequireFromString("100.30")))

	doc, err := store.GetDocument(ctx, identity.Collection, "1001")
	require.NoError(t, err)
	assert.Equal(t, "100.3", doc.String("checking.balance"))

	require.Len(t, n.sent, 1)
	assert.Equal(t, notification.KindDeposit, n.sent[0].Kind)
	assert.Equal(t, "1001", n.sent[0].Destination)
}

func TestDepositStartsMissingBalanceAtZero(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, saving, decimal.NewFromInt(50))
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, identity.Collection, "1002")
	require.NoError(t, err)
	assert.Equal(t, "50", doc.String("saving.balance"))
	assert.Equal(t, "5000-1002", doc.String("saving.cardNumber"))
}

func TestWithdrawDebitsBalance(t *testing.T) {
	svc, _, n := newTestService(t)

	tx, err := svc.Withdraw(context.Background(), checking, decimal.RequireFromString("100.10"))
	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.IsZero())
	require.Len(t, n.sent, 1)
	assert.Equal(t, notification.KindWithdrawal, n.sent[0].Kind)
}

func TestWithdrawRejectsOverdraft(t *testing.T) {
	svc, store, n := newTestService(t)
	ctx := context.Background()

	_, err := svc.Withdraw(ctx, checking, decimal.RequireFromString("100.11"))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	doc, err := store.GetDocument(ctx, identity.Collection, "1001")
	require.NoError(t, err)
	assert.Equal(t, "100.10", doc.String("checking.balance"))
	assert.Empty(t, n.sent)
}

func TestMoveRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, checking, decimal.Zero)
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
	_, err = svc.Withdraw(ctx, checking, decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
	_, err = svc.Deposit(ctx, mortgage, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrNoBalanceAccount)
	_, err = svc.Deposit(ctx, identity.Identity{AccountID: "9001", Role: identity.RoleOfficer}, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrNoBalanceAccount)
}

func TestMoveUnknownAccount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Deposit(context.Background(), identity.Identity{AccountID: "4040", Role: identity.RoleChecking}, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestHistoryNewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, checking, decimal.NewFromInt(10))
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, checking, decimal.NewFromInt(5))
	require.NoError(t, err)

	txs, err := svc.History(ctx, "1001", 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, KindWithdrawal, txs[0].Kind)
	assert.Equal(t, KindDeposit, txs[1].Kind)

	txs, err = svc.History(ctx, "1001", 1)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}
