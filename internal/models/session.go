package models

// AuthState is the Session Store's authentication state.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authenticated
)

func (s AuthState) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// User is the profile returned by the auth service and persisted under the "user" key.
type User struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Valid reports whether u carries enough to be treated as a logged-in identity.
func (u *User) Valid() bool {
	return u != nil && u.ID != "" && u.Fullname != ""
}

// Session is the authenticated identity and credential for the current client.
//
// User is nil iff the session is unauthenticated.
type Session struct {
	User        *User
	AccessToken string
}

// State derives the [AuthState] from the session contents.
func (s Session) State() AuthState {
	if s.User != nil && s.AccessToken != "" {
		return Authenticated
	}
	return Unauthenticated
}
