package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobile-bank/mobile_bank/internal/docstore"
	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/logging"
	"github.com/mobile-bank/mobile_bank/internal/profile"
	"github.com/mobile-bank/mobile_bank/internal/teller"
)

func TestSeederIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store, _ := docstore.NewMemoryStore()
	ids := identity.NewService(identity.NewMemoryRepository())
	logger := logging.Discard()
	s := NewSeeder(
		profile.NewService(store, ids, nil, logger),
		teller.NewService(store, teller.NewMemoryRepository(), nil, logger),
		logger,
	)

	require.NoError(t, s.Run(ctx))
	require.NoError(t, s.Run(ctx))

	doc, err := store.GetDocument(ctx, identity.Collection, "1000000001")
	require.NoError(t, err)
	assert.Equal(t, "2500", doc.String("checking.balance"))

	doc, err = store.GetDocument(ctx, identity.Collection, "1000000003")
	require.NoError(t, err)
	assert.True(t, doc.Has(identity.SectionMortgage))

	require.NoError(t, ids.Authenticate(ctx, "officer@demo.bank", DemoPassword))
}
