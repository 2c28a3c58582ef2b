package profile

// Profile is the officer-entered customer record.
type Profile struct {
	Name     string `json:"name" validate:"required"`
	Gender   string `json:"gender" validate:"required"`
	IDNumber string `json:"id_number" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Birthday string `json:"birthday" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// Errors holds one message per field; an empty message means the field
// passed.
type Errors struct {
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	IDNumber string `json:"id_number"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Birthday string `json:"birthday"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

// Empty reports whether every field passed.
func (e Errors) Empty() bool {
	return e == Errors{}
}

// MsgInvalidEmail is reported for a non-empty, malformed email.
const MsgInvalidEmail = "Invalid email format"

var fieldLabels = map[string]string{
	"Name":     "Name",
	"Gender":   "Gender",
	"IDNumber": "ID number",
	"Phone":    "Phone",
	"Email":    "Email",
	"Birthday": "Birthday",
	"Address":  "Address",
	"Role":     "Role",
}

func (e *Errors) set(field, msg string) {
	switch field {
	case "Name":
		e.Name = msg
	case "Gender":
		e.Gender = msg
	case "IDNumber":
		e.IDNumber = msg
	case "Phone":
		e.Phone = msg
	case "Email":
		e.Email = msg
	case "Birthday":
		e.Birthday = msg
	case "Address":
		e.Address = msg
	case "Role":
		e.Role = msg
	}
}
