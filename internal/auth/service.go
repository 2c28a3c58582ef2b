package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mobile-bank/mobile_bank/internal/account"
	"github.com/mobile-bank/mobile_bank/internal/docstore"
	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/metrics"
	"github.com/mobile-bank/mobile_bank/internal/navigation"
	"github.com/mobile-bank/mobile_bank/internal/notification"
	"github.com/mobile-bank/mobile_bank/internal/session"
)

var (
	// ErrLoginFailed is returned when the session manager rejects a login.
	// The returned Client state carries the user-facing message.
	ErrLoginFailed = errors.New("login failed")
	// ErrSessionNotFound is returned for unknown, logged out or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// Client is the server-side half of one signed-in client: its session
// manager, navigation history and account synchronizer.
type Client struct {
	ID        string
	AccountID string
	Session   *session.Manager
	Account   *account.Synchronizer
	Nav       *navigation.Stack
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Config holds the token settings.
type Config struct {
	Issuer string
	Secret []byte
	TTL    time.Duration
}

// Service is the registry of client sessions.
type Service struct {
	cfg      Config
	provider session.IdentityProvider
	docs     docstore.Reader
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*Client
}

// NewService builds an empty session registry.
func NewService(cfg Config, provider session.IdentityProvider, docs docstore.Reader, notifier notification.Notifier, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		provider: provider,
		docs:     docs,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		clients:  make(map[string]*Client),
	}
}

// LoginResult is returned from Login. Token is empty when the login failed.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	State     session.State
	Client    *Client
}

// Login runs a fresh client through the login flow. Customers get their
// account loaded; officers do not hold a product account. A successful login
// replaces any live session already open for the same account.
func (s *Service) Login(ctx context.Context, accountID, password string) (LoginResult, error) {
	client := &Client{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Nav:       navigation.NewStack(navigation.Login),
	}
	client.Session = session.NewManager(s.provider, s.docs, client.Nav,
		session.WithNotifier(s.notifier),
		session.WithMetrics(s.metrics),
		session.WithLogger(s.logger),
	)
	client.Account = account.NewSynchronizer(s.docs,
		account.WithLogger(s.logger),
		account.WithMetrics(s.metrics),
	)

	st := client.Session.Login(ctx, accountID, password)
	if !st.IsLoggedIn {
		return LoginResult{State: st}, ErrLoginFailed
	}

	if st.Identity.Role != identity.RoleOfficer {
		if err := client.Account.LoadAccount(ctx, st.Identity); err != nil {
			s.logger.Error("load account failed", "account_id", accountID, "error", err)
		}
	}

	client.IssuedAt = s.now()
	client.ExpiresAt = client.IssuedAt.Add(s.cfg.TTL)
	token, err := signToken(client.ID, accountID, string(st.Identity.Role), s.cfg.Issuer, client.IssuedAt, client.ExpiresAt, s.cfg.Secret)
	if err != nil {
		s.teardown(context.WithoutCancel(ctx), client)
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	var replaced []*Client
	s.mu.Lock()
	for id, other := range s.clients {
		if other.AccountID == client.AccountID {
			replaced = append(replaced, other)
			delete(s.clients, id)
		}
	}
	s.clients[client.ID] = client
	n := len(s.clients)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(n)

	for _, prev := range replaced {
		s.logger.Info("session replaced by new login", "account_id", accountID, "session_id", prev.ID)
		s.teardown(context.WithoutCancel(ctx), prev)
	}

	return LoginResult{Token: token, ExpiresAt: client.ExpiresAt, State: st, Client: client}, nil
}

// Authenticate parses token and returns the live client it names.
func (s *Service) Authenticate(token string) (*Client, *Claims, error) {
	claims, err := parseToken(token, s.cfg.Secret, s.now())
	if err != nil {
		return nil, nil, err
	}
	client, err := s.Lookup(claims.SessionID())
	if err != nil {
		return nil, nil, err
	}
	return client, claims, nil
}

// Lookup returns the live client for sessionID.
func (s *Service) Lookup(sessionID string) (*Client, error) {
	s.mu.Lock()
	client, ok := s.clients[sessionID]
	s.mu.Unlock()
	if !ok || !s.now().Before(client.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return client, nil
}

// Logout tears the client down and removes it from the registry.
func (s *Service) Logout(ctx context.Context, sessionID string) (session.State, error) {
	client := s.remove(sessionID)
	if client == nil {
		return session.State{}, ErrSessionNotFound
	}
	return s.teardown(ctx, client), nil
}

// Sweep logs out every session that expired at or before now and returns
// how many were removed.
func (s *Service) Sweep(ctx context.Context, now time.Time) int {
	var expired []*Client
	s.mu.Lock()
	for id, client := range s.clients {
		if !now.Before(client.ExpiresAt) {
			expired = append(expired, client)
			delete(s.clients, id)
		}
	}
	n := len(s.clients)
	s.mu.Unlock()

	for _, client := range expired {
		s.teardown(ctx, client)
	}
	s.metrics.SetActiveSessions(n)
	if len(expired) > 0 {
		s.logger.Info("expired sessions swept", "count", len(expired), "active", n)
	}
	return len(expired)
}

// Active returns the number of registered sessions.
func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close logs out every session.
func (s *Service) Close(ctx context.Context) {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[string]*Client)
	s.mu.Unlock()

	for _, client := range clients {
		s.teardown(ctx, client)
	}
	s.metrics.SetActiveSessions(0)
}

func (s *Service) remove(sessionID string) *Client {
	s.mu.Lock()
	client, ok := s.clients[sessionID]
	if ok {
		delete(s.clients, sessionID)
	}
	n := len(s.clients)
	s.mu.Unlock()
	if ok {
		s.metrics.SetActiveSessions(n)
	}
	return client
}

// teardown drops the account subscriptions before the session ends so no
// snapshot lands after logout.
func (s *Service) teardown(ctx context.Context, client *Client) session.State {
	client.Account.Reset()
	return client.Session.Logout(ctx)
}
