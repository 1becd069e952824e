package models

import "time"

// User is an account row. PasswordHash is the server-side hash of the
// account password; Metadata holds the client's public account data, such
// as the key-derivation salt.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Metadata     map[string]string
	CreatedAt    time.Time
}
