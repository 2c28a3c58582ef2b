package profile

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/mobile-bank/mobile_bank/internal/docstore"
	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/notification"
)

const (
	accountIDDigits  = 10
	cardNumberDigits = 16
)

var (
	// ErrInvalidProfile is returned when at least one field fails validation.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrAccountExists is returned when the requested account id is taken.
	ErrAccountExists = errors.New("account already exists")
)

// Registrar provisions identity provider credentials.
type Registrar interface {
	Register(ctx context.Context, email, password string) (identity.Credential, error)
	Unregister(ctx context.Context, email string) error
}

// Service opens customer records on behalf of an officer.
type Service struct {
	docs     docstore.Store
	ids      Registrar
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds the officer customer service.
func NewService(docs docstore.Store, ids Registrar, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{docs: docs, ids: ids, notifier: notifier, logger: logger}
}

// SubmitInput is a create request from the officer console.
type SubmitInput struct {
	Profile
	// AccountID is generated when empty.
	AccountID string
	Password  string
}

// SubmitResult describes the created customer.
type SubmitResult struct {
	AccountID  string `json:"account_id"`
	CardNumber string `json:"card_number"`
	Role       string `json:"role"`
}

// Submit validates in and, when every field passes, stores the customer
// document and provisions login credentials. On ErrInvalidProfile the
// returned Errors carry the per-field messages.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (SubmitResult, Errors, error) {
	errs := Check(in.Profile)
	role, ok := identity.ParseRole(in.Role)
	if in.Role != "" && !ok {
		errs.Role = "Unknown role"
	}
	if !errs.Empty() {
		return SubmitResult{}, errs, ErrInvalidProfile
	}

	accountID := in.AccountID
	if accountID == "" {
		accountID = randomDigits(accountIDDigits)
	}
	if _, err := s.docs.GetDocument(ctx, identity.Collection, accountID); err == nil {
		return SubmitResult{}, Errors{}, ErrAccountExists
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return SubmitResult{}, Errors{}, fmt.Errorf("check account: %w", err)
	}

	if _, err := s.ids.Register(ctx, in.Email, in.Password); err != nil {
		return SubmitResult{}, Errors{}, fmt.Errorf("register credentials: %w", err)
	}

	doc := docstore.Document{
		identity.FieldName:     in.Name,
		identity.FieldGender:   in.Gender,
		identity.FieldIDNumber: in.IDNumber,
		identity.FieldPhone:    in.Phone,
		identity.FieldEmail:    in.Email,
		identity.FieldBirthday: in.Birthday,
		identity.FieldAddress:  in.Address,
		identity.FieldRole:     string(role),
	}
	cardNumber := openProduct(doc, role)

	// The lookup above is only a fast path; CreateDocument decides races.
	if err := s.docs.CreateDocument(ctx, identity.Collection, accountID, doc); err != nil {
		s.unregister(context.WithoutCancel(ctx), in.Email, accountID)
		if errors.Is(err, docstore.ErrExists) {
			return SubmitResult{}, Errors{}, ErrAccountExists
		}
		return SubmitResult{}, Errors{}, fmt.Errorf("store customer: %w", err)
	}

	s.logger.Info("customer created", "account_id", accountID, "role", string(role))
	s.notify(ctx, notification.Message{
		Kind:        notification.KindCustomerCreated,
		Destination: accountID,
		Body:        fmt.Sprintf("Welcome %s, your %s account is ready", in.Name, role),
	})
	return SubmitResult{AccountID: accountID, CardNumber: cardNumber, Role: string(role)}, Errors{}, nil
}

// unregister drops credentials provisioned for a customer record that was
// never stored.
func (s *Service) unregister(ctx context.Context, email, accountID string) {
	if err := s.ids.Unregister(ctx, email); err != nil {
		s.logger.Error("remove orphaned credentials", "account_id", accountID, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification failed", "kind", msg.Kind, "account_id", msg.Destination, "error", err)
	}
}

// openProduct adds the product section for role and returns its card number.
func openProduct(doc docstore.Document, role identity.Role) string {
	var section string
	switch role {
	case identity.RoleChecking:
		section = identity.SectionChecking
	case identity.RoleSaving:
		section = identity.SectionSaving
	case identity.RoleMortgage:
		section = identity.SectionMortgage
	case identity.RoleOfficer, identity.RoleUnknown:
		return ""
	default:
		return ""
	}
	cardNumber := randomDigits(cardNumberDigits)
	doc.Set(section+".cardNumber", cardNumber)
	if role != identity.RoleMortgage {
		doc.Set(section+".balance", "0")
	}
	return cardNumber
}

func randomDigits(n int) string {
	out := make([]byte, n)
	ten := big.NewInt(10)
	for i := range out {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			panic(err)
		}
		out[i] = byte('0' + d.Int64())
	}
	if out[0] == '0' {
		out[0] = '1'
	}
	return string(out)
}
