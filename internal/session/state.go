package session

// User is the account record returned by the API at sign-in and by the
// profile endpoints. It is persisted as JSON next to the token.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Credentials is the body of a session-creation request
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Status identifies which variant of State is active
type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// State is the session as seen by consumers. Token and User are only
// populated when Status is StatusAuthenticated.
type State struct {
	Status Status
	Token  string
	User   User
}

// Anonymous returns the signed-out state
func Anonymous() State {
	return State{Status: StatusAnonymous}
}

// authenticated returns a signed-in state for token and user
func authenticated(token string, user User) State {
	return State{Status: StatusAuthenticated, Token: token, User: user}
}

// Authenticated reports whether the state carries a token and a user
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated
}
