package identity

import (
	"time"

	"github.com/mobile-bank/mobile_bank/internal/docstore"
)

// Collection is the document collection holding one record per account.
const Collection = "users"

// Document keys of a user record.
const (
	FieldName     = "name"
	FieldGender   = "gender"
	FieldIDNumber = "idNumber"
	FieldPhone    = "phone"
	FieldEmail    = "email"
	FieldBirthday = "birthday"
	FieldAddress  = "address"
	FieldRole     = "role"

	SectionChecking = "checking"
	SectionSaving   = "saving"
	SectionMortgage = "mortgage"
)

// Role selects which product line an identity belongs to.
type Role string

const (
	RoleUnknown  Role = ""
	RoleChecking Role = "Checking"
	RoleSaving   Role = "Saving"
	RoleMortgage Role = "Mortgage"
	RoleOfficer  Role = "Officer"
)

// ParseRole maps a stored role string onto the closed Role set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleChecking, RoleSaving, RoleMortgage, RoleOfficer:
		return Role(s), true
	default:
		return RoleUnknown, false
	}
}

// Identity is the resolved profile of an authenticated person.
type Identity struct {
	AccountID            string `json:"account_id"`
	FullName             string `json:"full_name"`
	Gender               string `json:"gender"`
	IdentificationNumber string `json:"identification_number"`
	PhoneNumber          string `json:"phone_number"`
	Email                string `json:"email"`
	Birthday             string `json:"birthday"`
	Address              string `json:"address"`
	Role                 Role   `json:"role"`
}

// IsZero reports whether i is the default identity.
func (i Identity) IsZero() bool {
	return i == Identity{}
}

// FromDocument builds an Identity from a user record. Missing fields are "".
func FromDocument(accountID string, doc docstore.Document) Identity {
	role, _ := ParseRole(doc.String(FieldRole))
	return Identity{
		AccountID:            accountID,
		FullName:             doc.String(FieldName),
		Gender:               doc.String(FieldGender),
		IdentificationNumber: doc.String(FieldIDNumber),
		PhoneNumber:          doc.String(FieldPhone),
		Email:                doc.String(FieldEmail),
		Birthday:             doc.String(FieldBirthday),
		Address:              doc.String(FieldAddress),
		Role:                 role,
	}
}

// Credential is the identity provider's record for one email.
type Credential struct {
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	LastLogin    *time.Time
	LastLogout   *time.Time
}
