package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mobile-bank/mobile_bank/internal/docstore"
	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/metrics"
	"github.com/mobile-bank/mobile_bank/internal/navigation"
	"github.com/mobile-bank/mobile_bank/internal/notification"
	"github.com/mobile-bank/mobile_bank/internal/state"
)

// IdentityProvider authenticates an email/password pair and ends sessions.
type IdentityProvider interface {
	Authenticate(ctx context.Context, email, password string) error
	EndSession(ctx context.Context, email string) error
}

// DocumentReader resolves account records.
type DocumentReader interface {
	GetDocument(ctx context.Context, collection, id string) (docstore.Document, error)
}

// Manager drives login and logout for one client. Every failure is folded
// into State; no method returns an error.
type Manager struct {
	provider IdentityProvider
	docs     DocumentReader
	nav      navigation.Host
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	state    *state.Store[State]
	now      func() time.Time
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithNotifier sends sign-in and sign-out notifications through n.
func WithNotifier(n notification.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithMetrics records login outcomes on mt.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager builds a Manager starting from the logged-out state.
func NewManager(provider IdentityProvider, docs DocumentReader, nav navigation.Host, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		docs:     docs,
		nav:      nav,
		logger:   slog.Default(),
		state:    state.New(State{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current session snapshot.
func (m *Manager) State() State {
	return m.state.Load()
}

// Watch signals after every state change.
func (m *Manager) Watch() (<-chan struct{}, func()) {
	return m.state.Watch()
}

// Login resolves accountID to an email, authenticates it and commits the
// identity. On success the client is routed to its home screen and the login
// screen is removed from history.
func (m *Manager) Login(ctx context.Context, accountID, password string) State {
	start := m.now()
	if accountID == "" || password == "" {
		return m.fail(start, metrics.OutcomeMissingInput, MsgMissingCredentials)
	}

	m.state.Update(func(s State) State {
		s.IsLoading = true
		s.LoginFailedMessage = ""
		return s
	})

	doc, err := m.docs.GetDocument(ctx, identity.Collection, accountID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return m.fail(start, metrics.OutcomeUnknownAccount, MsgUnknownAccount)
		}
		m.logger.Error("account lookup failed", "account_id", accountID, "error", err)
		return m.fail(start, metrics.OutcomeLookupError, loginFailedPrefix+err.Error())
	}

	email := doc.String(identity.FieldEmail)
	if email == "" {
		return m.fail(start, metrics.OutcomeMissingEmail, MsgMissingEmail)
	}

	if err := m.provider.Authenticate(ctx, email, password); err != nil {
		m.logger.Info("authentication rejected", "account_id", accountID, "error", err)
		return m.fail(start, metrics.OutcomeProviderError, loginFailedPrefix+err.Error())
	}

	id := identity.FromDocument(accountID, doc)
	committed := m.state.Update(func(State) State {
		return State{Identity: id, IsLoggedIn: true}
	})
	m.metrics.ObserveLogin(metrics.OutcomeSuccess, m.now().Sub(start))
	m.logger.Info("login succeeded", "account_id", accountID, "role", string(id.Role))

	m.nav.NavigateTo(HomeFor(id.Role), navigation.PopUpTo(navigation.Login))
	m.notify(ctx, notification.KindSignIn, id, "New sign-in to your account")
	return committed
}

// Logout ends the provider session, resets to the default identity and
// returns the client to the login screen with an empty history.
func (m *Manager) Logout(ctx context.Context) State {
	prev := m.state.Load()
	if email := prev.Identity.Email; email != "" {
		if err := m.provider.EndSession(ctx, email); err != nil {
			m.logger.Warn("end session failed", "account_id", prev.Identity.AccountID, "error", err)
		}
	}

	next := m.state.Update(func(State) State { return State{} })
	m.nav.NavigateTo(navigation.Login, navigation.ClearHistory())
	if prev.IsLoggedIn {
		m.notify(ctx, notification.KindSignOut, prev.Identity, "You have signed out")
	}
	return next
}

// HomeFor picks the landing destination for role.
func HomeFor(role identity.Role) navigation.Destination {
	if role == identity.RoleOfficer {
		return navigation.OfficerHome
	}
	return navigation.CustomerHome
}

func (m *Manager) fail(start time.Time, outcome, msg string) State {
	m.metrics.ObserveLogin(outcome, m.now().Sub(start))
	return m.state.Update(func(State) State { return failed(msg) })
}

func (m *Manager) notify(ctx context.Context, kind string, id identity.Identity, body string) {
	if m.notifier == nil {
		return
	}
	msg := notification.Message{Kind: kind, Destination: id.AccountID, Body: body}
	if err := m.notifier.Send(ctx, msg); err != nil {
		m.logger.Warn("notification failed", "kind", kind, "error", err)
	}
}
