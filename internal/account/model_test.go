package account

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobile-bank/mobile_bank/internal/identity"
)

func TestToDecimal(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  any
		want string
	}{
		{"json number", json.Number("120000"), "120000"},
		{"float", float64(120000), "120000"},
		{"int", 120000, "120000"},
		{"int64", int64(-42), "-42"},
		{"string with cents", "120000.50", "120000.5"},
		{"padded string", " 7.25 ", "7.25"},
		{"garbage string", "abc", "0"},
		{"absent", nil, "0"},
		{"unsupported type", []any{1}, "0"},
		{"decimal", decimal.RequireFromString("3.10"), "3.1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDecimal(tc.raw)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestToCardNumber(t *testing.T) {
	assert.Equal(t, "", ToCardNumber(nil))
	assert.Equal(t, "4000-1111", ToCardNumber("4000-1111"))
	assert.Equal(t, "400011112222", ToCardNumber(json.Number("400011112222")))
	assert.Equal(t, "400011112222", ToCardNumber(float64(400011112222)))
}

func TestCardNumberPath(t *testing.T) {
	p, err := CardNumberPath(identity.RoleChecking)
	require.NoError(t, err)
	assert.Equal(t, "checking.cardNumber", p)

	p, err = CardNumberPath(identity.RoleSaving)
	require.NoError(t, err)
	assert.Equal(t, "saving.cardNumber", p)

	p, err = CardNumberPath(identity.RoleMortgage)
	require.NoError(t, err)
	assert.Equal(t, "mortgage.cardNumber", p)

	_, err = CardNumberPath(identity.RoleOfficer)
	assert.ErrorIs(t, err, ErrNoProductAccount)

	_, err = CardNumberPath(identity.RoleUnknown)
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = CardNumberPath(identity.Role("Premium"))
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestBalancePath(t *testing.T) {
	p, ok := BalancePath(identity.RoleChecking)
	assert.True(t, ok)
	assert.Equal(t, "checking.balance", p)

	p, ok = BalancePath(identity.RoleSaving)
	assert.True(t, ok)
	assert.Equal(t, "saving.balance", p)

	for _, r := range []identity.Role{identity.RoleMortgage, identity.RoleOfficer, identity.RoleUnknown} {
		_, ok := BalancePath(r)
		assert.False(t, ok, string(r))
	}
}
