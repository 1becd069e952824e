package models

// UserProfile identifies the signed-in user. Salt is the Base64 PBKDF2 salt
// kept in remote user metadata and mirrored into the local session record.
type UserProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Salt     string `json:"salt"`
}

// AuthSession is what the remote returns on sign-in or sign-up.
type AuthSession struct {
	UserID   string
	Email    string
	Metadata map[string]string
}
