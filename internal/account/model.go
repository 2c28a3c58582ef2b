package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mobile-bank/mobile_bank/internal/identity"
)

var (
	// ErrNoProductAccount is returned for roles that hold no product account.
	ErrNoProductAccount = errors.New("role has no product account")
	// ErrUnknownRole is returned for identities whose role is not recognised.
	ErrUnknownRole = errors.New("unknown role")
)

// State is the account snapshot for the active identity. Each writer owns a
// disjoint set of fields: the initial fetch owns CardNumber, the balance
// subscription owns Balance, the presence subscription owns HasSaving and
// HasMortgage.
type State struct {
	AccountID   string            `json:"account_id"`
	Identity    identity.Identity `json:"identity"`
	CardNumber  string            `json:"card_number"`
	Balance     decimal.Decimal   `json:"balance"`
	HasSaving   bool              `json:"has_saving"`
	HasMortgage bool              `json:"has_mortgage"`
}

// CardNumberPath returns the document path holding the card number for role.
func CardNumberPath(role identity.Role) (string, error) {
	switch role {
	case identity.RoleChecking:
		return identity.SectionChecking + ".cardNumber", nil
	case identity.RoleSaving:
		return identity.SectionSaving + ".cardNumber", nil
	case identity.RoleMortgage:
		return identity.SectionMortgage + ".cardNumber", nil
	case identity.RoleOfficer:
		return "", ErrNoProductAccount
	case identity.RoleUnknown:
		return "", ErrUnknownRole
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, string(role))
	}
}

// BalancePath returns the document path of the live balance for role. Only
// checking and saving accounts carry one.
func BalancePath(role identity.Role) (string, bool) {
	switch role {
	case identity.RoleChecking:
		return identity.SectionChecking + ".balance", true
	case identity.RoleSaving:
		return identity.SectionSaving + ".balance", true
	case identity.RoleMortgage, identity.RoleOfficer, identity.RoleUnknown:
		return "", false
	default:
		return "", false
	}
}

// ToDecimal coerces a raw document value into a decimal. Numbers convert
// directly, strings are parsed, anything else (including absent and
// unparsable values) is zero.
func ToDecimal(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case json.Number:
		return parseDecimal(v.String())
	case string:
		return parseDecimal(v)
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
	default:
		return decimal.Zero
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ToCardNumber renders a raw card-number value as a string; absent is "".
func ToCardNumber(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
