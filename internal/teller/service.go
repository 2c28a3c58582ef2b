package teller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mobile-bank/mobile_bank/internal/account"
	"github.com/mobile-bank/mobile_bank/internal/docstore"
	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/notification"
)

const defaultHistoryLimit = 20

var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoBalanceAccount is returned for roles without a balance, such as
	// mortgage holders and officers.
	ErrNoBalanceAccount = errors.New("role has no balance account")
)

// Service moves cash in and out of an identity's balance. Writes go through
// the document store so live balance subscriptions see them.
type Service struct {
	docs     docstore.Writer
	repo     Repository
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a teller service.
func NewService(docs docstore.Writer, repo Repository, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{docs: docs, repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// Deposit credits amount to id's balance.
func (s *Service) Deposit(ctx context.Context, id identity.Identity, amount decimal.Decimal) (Transaction, error) {
	return s.move(ctx, id, KindDeposit, amount)
}

// Withdraw debits amount from id's balance. The balance never goes negative.
func (s *Service) Withdraw(ctx context.Context, id identity.Identity, amount decimal.Decimal) (Transaction, error) {
	return s.move(ctx, id, KindWithdrawal, amount)
}

// History returns the most recent movements for accountID, newest first.
func (s *Service) History(ctx context.Context, accountID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.repo.Recent(ctx, accountID, limit)
}

func (s *Service) move(ctx context.Context, id identity.Identity, kind Kind, amount decimal.Decimal) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, ErrNonPositiveAmount
	}
	path, ok := account.BalancePath(id.Role)
	if !ok {
		return Transaction{}, ErrNoBalanceAccount
	}

	delta := amount
	if kind == KindWithdrawal {
		delta = amount.Neg()
	}

	var after decimal.Decimal
	_, err := s.docs.UpdateDocument(ctx, identity.Collection, id.AccountID, func(doc docstore.Document) error {
		raw, _ := doc.Lookup(path)
		after = account.ToDecimal(raw).Add(delta)
		if after.IsNegative() {
			return ErrInsufficientFunds
		}
		doc.Set(path, after.String())
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return Transaction{}, err
		}
		return Transaction{}, fmt.Errorf("update balance: %w", err)
	}

	tx := Transaction{
		ID:           uuid.NewString(),
		AccountID:    id.AccountID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: after,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Append(ctx, tx); err != nil {
		s.logger.Error("journal transaction failed", "account_id", id.AccountID, "kind", string(kind), "error", err)
	}

	s.logger.Info("balance moved", "account_id", id.AccountID, "kind", string(kind), "amount", amount.String())
	s.notify(ctx, tx)
	return tx, nil
}

func (s *Service) notify(ctx context.Context, tx Transaction) {
	if s.notifier == nil {
		return
	}
	kind := notification.KindDeposit
	verb := "credited to"
	if tx.Kind == KindWithdrawal {
		kind = notification.KindWithdrawal
		verb = "debited from"
	}
	msg := notification.Message{
		Kind:        kind,
		Destination: tx.AccountID,
		Body:        fmt.Sprintf("%s %s your account, balance %s", tx.Amount.StringFixed(2), verb, tx.BalanceAfter.StringFixed(2)),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification failed", "kind", kind, "error", err)
	}
}
