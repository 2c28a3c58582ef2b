package session

import "github.com/mobile-bank/mobile_bank/internal/identity"

// Failure messages surfaced in State.LoginFailedMessage.
const (
	MsgMissingCredentials = "Please enter account ID and password"
	MsgUnknownAccount     = "User's ID doesn't exist"
	MsgMissingEmail       = "Can't find the email of this user"

	loginFailedPrefix = "Login failed: "
)

// State is the session snapshot owned by a Manager. IsLoggedIn holds exactly
// when Identity is set and LoginFailedMessage is empty.
type State struct {
	Identity           identity.Identity `json:"identity"`
	IsLoading          bool              `json:"is_loading"`
	IsLoggedIn         bool              `json:"is_logged_in"`
	LoginFailedMessage string            `json:"login_failed_message"`
}

func failed(msg string) State {
	return State{LoginFailedMessage: msg}
}
