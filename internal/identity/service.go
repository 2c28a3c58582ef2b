package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCredentialExists is returned when registering an email twice.
	ErrCredentialExists = errors.New("credential already exists")
	// ErrCredentialNotFound is returned when no credential matches an email.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrWeakPassword is returned when a password is too short to register.
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

// Service is the identity provider: it owns password credentials keyed by
// email and records session start and end.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new identity provider.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register stores a bcrypt hash of password for email.
func (s *Service) Register(ctx context.Context, email, password string) (Credential, error) {
	email = normalizeEmail(email)
	if len(password) < minPasswordLength {
		return Credential{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Credential{}, err
	}

	cred := Credential{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, cred); err != nil {
		return Credential{}, err
	}
	return cred, nil
}

// Unregister removes the credential for email.
func (s *Service) Unregister(ctx context.Context, email string) error {
	return s.repo.Delete(ctx, normalizeEmail(email))
}

// Authenticate verifies password against the credential stored for email.
func (s *Service) Authenticate(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	cred, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return s.repo.RecordLogin(ctx, email, s.now().UTC())
}

// EndSession records that the session opened for email has been terminated.
func (s *Service) EndSession(ctx context.Context, email string) error {
	return s.repo.RecordLogout(ctx, normalizeEmail(email), s.now().UTC())
}

// Credential returns the stored record for email.
func (s *Service) Credential(ctx context.Context, email string) (Credential, error) {
	return s.repo.FindByEmail(ctx, normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
