package account

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mobile-bank/mobile_bank/internal/docstore"
	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/metrics"
	"github.com/mobile-bank/mobile_bank/internal/state"
)

// DocumentReader is the part of the document store the synchronizer needs.
type DocumentReader interface {
	GetField(ctx context.Context, collection, id, path string) (any, bool, error)
	Subscribe(ctx context.Context, collection, id string, onSnapshot func(docstore.Document), onError func(error)) (docstore.Subscription, error)
}

// Synchronizer resolves the product account of an identity and keeps its
// balance and sub-account flags current through two live subscriptions.
type Synchronizer struct {
	docs    DocumentReader
	logger  *slog.Logger
	metrics *metrics.Metrics
	state   *state.Store[State]

	// gen is bumped whenever subscriptions are replaced or released; updates
	// carrying an older generation are dropped.
	gen atomic.Uint64

	mu          sync.Mutex
	balanceSub  docstore.Subscription
	presenceSub docstore.Subscription
}

// Option configures optional Synchronizer collaborators.
type Option func(*Synchronizer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// WithMetrics records subscription activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

// NewSynchronizer builds an idle Synchronizer.
func NewSynchronizer(docs DocumentReader, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		docs:   docs,
		logger: slog.Default(),
		state:  state.New(State{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current account snapshot.
func (s *Synchronizer) State() State {
	return s.state.Load()
}

// Watch signals after every state change.
func (s *Synchronizer) Watch() (<-chan struct{}, func()) {
	return s.state.Watch()
}

// LoadAccount fetches the card number for id's product line, then replaces
// any previous subscriptions with fresh balance and sub-account listeners
// scoped to id.AccountID. Calling it again re-issues the subscriptions.
// When a load for a different account or role fails, the previous
// subscriptions are released and the snapshot cleared.
func (s *Synchronizer) LoadAccount(ctx context.Context, id identity.Identity) error {
	path, err := CardNumberPath(id.Role)
	if err != nil {
		s.abandon(id)
		return err
	}
	raw, _, err := s.docs.GetField(ctx, identity.Collection, id.AccountID, path)
	if err != nil {
		s.abandon(id)
		return fmt.Errorf("fetch card number: %w", err)
	}
	cardNumber := ToCardNumber(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked()
	gen := s.gen.Load()

	s.state.Update(func(cur State) State {
		next := State{AccountID: id.AccountID, Identity: id, CardNumber: cardNumber}
		if cur.AccountID == id.AccountID {
			next.Balance = cur.Balance
			next.HasSaving = cur.HasSaving
			next.HasMortgage = cur.HasMortgage
		}
		return next
	})

	if balancePath, ok := BalancePath(id.Role); ok {
		sub, err := s.docs.Subscribe(ctx, identity.Collection, id.AccountID,
			s.onBalance(gen, id.AccountID, balancePath),
			s.onError(metrics.KindBalance, id.AccountID))
		if err != nil {
			return fmt.Errorf("observe balance: %w", err)
		}
		s.balanceSub = sub
		s.metrics.SubscriptionOpened(metrics.KindBalance)
	}

	sub, err := s.docs.Subscribe(ctx, identity.Collection, id.AccountID,
		s.onPresence(gen, id.AccountID),
		s.onError(metrics.KindSubAccounts, id.AccountID))
	if err != nil {
		return fmt.Errorf("observe sub-accounts: %w", err)
	}
	s.presenceSub = sub
	s.metrics.SubscriptionOpened(metrics.KindSubAccounts)

	s.logger.Debug("account loaded", "account_id", id.AccountID, "role", string(id.Role))
	return nil
}

// Release closes both subscriptions. State is left as last observed.
func (s *Synchronizer) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

// Reset releases subscriptions and clears the account snapshot.
func (s *Synchronizer) Reset() {
	s.Release()
	s.state.Set(State{})
}

// abandon drops the current account unless it is the one id names.
func (s *Synchronizer) abandon(id identity.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.state.Load()
	if cur.AccountID == id.AccountID && cur.Identity.Role == id.Role {
		return
	}
	s.releaseLocked()
	s.state.Set(State{})
}

func (s *Synchronizer) releaseLocked() {
	s.gen.Add(1)
	if s.balanceSub != nil {
		s.closeSub(s.balanceSub, metrics.KindBalance)
		s.balanceSub = nil
	}
	if s.presenceSub != nil {
		s.closeSub(s.presenceSub, metrics.KindSubAccounts)
		s.presenceSub = nil
	}
}

func (s *Synchronizer) closeSub(sub docstore.Subscription, kind string) {
	if err := sub.Close(); err != nil {
		s.logger.Warn("close subscription", "kind", kind, "error", err)
	}
	s.metrics.SubscriptionClosed(kind)
}

func (s *Synchronizer) onBalance(gen uint64, accountID, path string) func(docstore.Document) {
	return func(doc docstore.Document) {
		raw, _ := doc.Lookup(path)
		balance := ToDecimal(raw)
		s.apply(gen, accountID, metrics.KindBalance, func(cur State) State {
			cur.Balance = balance
			return cur
		})
	}
}

func (s *Synchronizer) onPresence(gen uint64, accountID string) func(docstore.Document) {
	return func(doc docstore.Document) {
		hasSaving := doc.Has(identity.SectionSaving)
		hasMortgage := doc.Has(identity.SectionMortgage)
		s.apply(gen, accountID, metrics.KindSubAccounts, func(cur State) State {
			cur.HasSaving = hasSaving
			cur.HasMortgage = hasMortgage
			return cur
		})
	}
}

// apply merges one writer's fields unless the update belongs to a replaced
// subscription or a different account.
func (s *Synchronizer) apply(gen uint64, accountID, kind string, merge func(State) State) {
	applied := false
	s.state.Update(func(cur State) State {
		if s.gen.Load() != gen || cur.AccountID != accountID {
			return cur
		}
		applied = true
		return merge(cur)
	})
	if applied {
		s.metrics.SnapshotApplied(kind)
	} else {
		s.logger.Debug("dropped stale snapshot", "kind", kind, "account_id", accountID)
	}
}

func (s *Synchronizer) onError(kind, accountID string) func(error) {
	return func(err error) {
		s.metrics.SubscriptionError(kind)
		s.logger.Warn("subscription error", "kind", kind, "account_id", accountID, "error", err)
	}
}
