package identity

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu          sync.RWMutex
	credentials map[string]Credential
}

// NewMemoryRepository builds an in-memory credential store for tests and
// local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{credentials: make(map[string]Credential)}
}

func (r *memoryRepository) Create(_ context.Context, cred Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.credentials[cred.Email]; exists {
		return ErrCredentialExists
	}
	r.credentials[cred.Email] = cred
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.credentials[email]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return cred, nil
}

func (r *memoryRepository) RecordLogin(_ context.Context, email string, at time.Time) error {
	return r.touch(email, func(c *Credential) { c.LastLogin = &at })
}

func (r *memoryRepository) RecordLogout(_ context.Context, email string, at time.Time) error {
	return r.touch(email, func(c *Credential) { c.LastLogout = &at })
}

func (r *memoryRepository) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.credentials[email]; !ok {
		return ErrCredentialNotFound
	}
	delete(r.credentials, email)
	return nil
}

func (r *memoryRepository) touch(email string, fn func(*Credential)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.credentials[email]
	if !ok {
		return ErrCredentialNotFound
	}
	fn(&cred)
	r.credentials[email] = cred
	return nil
}
