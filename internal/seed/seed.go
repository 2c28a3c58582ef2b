package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/profile"
	"github.com/mobile-bank/mobile_bank/internal/teller"
)

// DemoPassword is shared by every demo login.
const DemoPassword = "password123"

type demoCustomer struct {
	accountID string
	profile   profile.Profile
	opening   string
}

var demoCustomers = []demoCustomer{
	{"1000000001", profile.Profile{Name: "Jane Doe", Gender: "Female", IDNumber: "A1000001", Phone: "+1 555 0101",
		Email: "jane@demo.bank", Birthday: "1990-04-01", Address: "12 Harbour Road", Role: string(identity.RoleChecking)}, "2500.00"},
	{"1000000002", profile.Profile{Name: "Sam Lee", Gender: "Male", IDNumber: "A1000002", Phone: "+1 555 0102",
		Email: "sam@demo.bank", Birthday: "1985-11-23", Address: "4 Mill Lane", Role: string(identity.RoleSaving)}, "18000.00"},
	{"1000000003", profile.Profile{Name: "Max Park", Gender: "Male", IDNumber: "A1000003", Phone: "+1 555 0103",
		Email: "max@demo.bank", Birthday: "1979-02-14", Address: "77 Orchard Street", Role: string(identity.RoleMortgage)}, ""},
	{"9000000001", profile.Profile{Name: "Olu Officer", Gender: "Female", IDNumber: "B9000001", Phone: "+1 555 0199",
		Email: "officer@demo.bank", Birthday: "1982-07-30", Address: "1 Bank Plaza", Role: string(identity.RoleOfficer)}, ""},
}

// Seeder opens the demo customers used by local development.
type Seeder struct {
	profiles *profile.Service
	teller   *teller.Service
	logger   *slog.Logger
}

// NewSeeder creates a new seeder instance.
func NewSeeder(profiles *profile.Service, teller *teller.Service, logger *slog.Logger) *Seeder {
	return &Seeder{profiles: profiles, teller: teller, logger: logger}
}

// Run creates every demo customer that does not exist yet.
func (s *Seeder) Run(ctx context.Context) error {
	for _, c := range demoCustomers {
		if err := s.seedCustomer(ctx, c); err != nil {
			return fmt.Errorf("seed %s: %w", c.accountID, err)
		}
	}
	s.logger.Info("demo customers ready", "count", len(demoCustomers), "password", DemoPassword)
	return nil
}

func (s *Seeder) seedCustomer(ctx context.Context, c demoCustomer) error {
	result, _, err := s.profiles.Submit(ctx, profile.SubmitInput{
		Profile:   c.profile,
		AccountID: c.accountID,
		Password:  DemoPassword,
	})
	switch {
	case errors.Is(err, profile.ErrAccountExists), errors.Is(err, identity.ErrCredentialExists):
		return nil
	case err != nil:
		return err
	}
	s.logger.Debug("demo customer created", "account_id", result.AccountID, "role", result.Role)

	if c.opening == "" {
		return nil
	}
	id := identity.Identity{AccountID: c.accountID, Role: identity.Role(c.profile.Role)}
	_, err = s.teller.Deposit(ctx, id, decimal.RequireFromString(c.opening))
	return err
}
