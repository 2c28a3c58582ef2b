package profile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobile-bank/mobile_bank/internal/docstore"
	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/logging"
	"github.com/mobile-bank/mobile_bank/internal/notification"
)

func newTestService(t *testing.T) (*Service, docstore.Store, *identity.Service) {
	t.Helper()
	store, _ := docstore.NewMemoryStore()
	ids := identity.NewService(identity.NewMemoryRepository())
	return NewService(store, ids, nil, logging.Discard()), store, ids
}

func completeInput(role string) SubmitInput {
	return SubmitInput{
		Profile: Profile{
			Name:     "Ada Obi",
			Gender:   "Female",
			IDNumber: "A1234567",
			Phone:    "+1 555 0100",
			Email:    "ada@example.com",
			Birthday: "1990-04-01",
			Address:  "12 Harbour Road",
			Role:     role,
		},
		AccountID: "1000000001",
		Password:  "secret123",
	}
}

func TestSubmitCreatesCheckingCustomer(t *testing.T) {
	svc, store, ids := newTestService(t)
	ctx := context.Background()

	result, fieldErrs, err := svc.Submit(ctx, completeInput("Checking"))
	require.NoError(t, err)
	assert.True(t, fieldErrs.Empty())
	assert.Equal(t, "1000000001", result.AccountID)
	assert.Len(t, result.CardNumber, cardNumberDigits)

	doc, err := store.GetDocument(ctx, identity.Collection, "1000000001")
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", doc.String(identity.FieldName))
	assert.Equal(t, "Checking", doc.String(identity.FieldRole))
	assert.Equal(t, result.CardNumber, doc.String("checking.cardNumber"))
	assert.Equal(t, "0", doc.String("checking.balance"))

	require.NoError(t, ids.Authenticate(ctx, "ada@example.com", "secret123"))
}

func TestSubmitMortgageHasNoBalance(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Submit(ctx, completeInput("Mortgage"))
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, identity.Collection, "1000000001")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.String("mortgage.cardNumber"))
	_, ok := doc.Lookup("mortgage.balance")
	assert.False(t, ok)
}

func TestSubmitOfficerHasNoProduct(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	result, _, err := svc.Submit(ctx, completeInput("Officer"))
	require.NoError(t, err)
	assert.Empty(t, result.CardNumber)

	doc, err := store.GetDocument(ctx, identity.Collection, "1000000001")
	require.NoError(t, err)
	assert.False(t, doc.Has(identity.SectionChecking))
	assert.False(t, doc.Has(identity.SectionSaving))
	assert.False(t, doc.Has(identity.SectionMortgage))
}

func TestSubmitGeneratesAccountID(t *testing.T) {
	svc, store, _ := newTestService(t)
	in := completeInput("Saving")
	in.AccountID = ""

	result, _, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.AccountID, accountIDDigits)

	_, err = store.GetDocument(context.Background(), identity.Collection, result.AccountID)
	require.NoError(t, err)
}

func TestSubmitRejectsInvalidProfile(t *testing.T) {
	svc, store, _ := newTestService(t)
	in := completeInput("Checking")
	in.Name = ""
	in.Email = "not-an-email"

	_, fieldErrs, err := svc.Submit(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidProfile)
	assert.Equal(t, "Name is required", fieldErrs.Name)
	assert.Equal(t, MsgInvalidEmail, fieldErrs.Email)

	_, err = store.GetDocument(context.Background(), identity.Collection, "1000000001")
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
}

func TestSubmitRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, fieldErrs, err := svc.Submit(context.Background(), completeInput("Platinum"))
	require.ErrorIs(t, err, ErrInvalidProfile)
	assert.Equal(t, "Unknown role", fieldErrs.Role)
}

func TestSubmitRejectsExistingAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Submit(ctx, completeInput("Checking"))
	require.NoError(t, err)

	again := completeInput("Saving")
	again.Email = "other@example.com"
	_, _, err = svc.Submit(ctx, again)
	require.ErrorIs(t, err, ErrAccountExists)
}

func TestSubmitRejectsDuplicateEmail(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Submit(ctx, completeInput("Checking"))
	require.NoError(t, err)

	again := completeInput("Checking")
	again.AccountID = "1000000002"
	_, _, err = svc.Submit(ctx, again)
	require.ErrorIs(t, err, identity.ErrCredentialExists)

	_, err = store.GetDocument(ctx, identity.Collection, "1000000002")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestSubmitConcurrentSameAccount(t *testing.T) {
	svc, store, ids := newTestService(t)
	ctx := context.Background()

	emails := []string{"ada@example.com", "bola@example.com", "chi@example.com", "dayo@example.com"}
	errs := make([]error, len(emails))
	var wg sync.WaitGroup
	for i, email := range emails {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			in := completeInput("Checking")
			in.Email = email
			_, _, errs[i] = svc.Submit(ctx, in)
		}(i, email)
	}
	wg.Wait()

	doc, err := store.GetDocument(ctx, identity.Collection, "1000000001")
	require.NoError(t, err)
	winner := doc.String(identity.FieldEmail)

	created := 0
	for i, err := range errs {
		if err == nil {
			created++
			assert.Equal(t, emails[i], winner)
			continue
		}
		require.ErrorIs(t, err, ErrAccountExists)
		_, lookupErr := ids.Credential(ctx, emails[i])
		assert.ErrorIs(t, lookupErr, identity.ErrCredentialNotFound, "losing submit must not leave credentials behind")
	}
	assert.Equal(t, 1, created)
	require.NoError(t, ids.Authenticate(ctx, winner, "secret123"))
}

type failingCreateStore struct {
	docstore.Store
}

func (failingCreateStore) CreateDocument(context.Context, string, string, docstore.Document) error {
	return errors.New("disk full")
}

func TestSubmitStoreFailureRemovesCredentials(t *testing.T) {
	store, _ := docstore.NewMemoryStore()
	ids := identity.NewService(identity.NewMemoryRepository())
	svc := NewService(failingCreateStore{Store: store}, ids, nil, logging.Discard())
	ctx := context.Background()

	_, _, err := svc.Submit(ctx, completeInput("Checking"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccountExists)

	_, err = ids.Credential(ctx, "ada@example.com")
	assert.ErrorIs(t, err, identity.ErrCredentialNotFound)
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, notification.Message) error {
	return errors.New("broker down")
}

func TestSubmitSucceedsWhenNotificationFails(t *testing.T) {
	store, _ := docstore.NewMemoryStore()
	ids := identity.NewService(identity.NewMemoryRepository())
	svc := NewService(store, ids, failingNotifier{}, logging.Discard())

	result, _, err := svc.Submit(context.Background(), completeInput("Saving"))
	require.NoError(t, err)
	assert.Equal(t, "1000000001", result.AccountID)
}
