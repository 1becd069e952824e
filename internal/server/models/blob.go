package models

import "time"

// Blob is the opaque encrypted wallet of one account. IV and Ciphertext are
// the client's Base64 strings, stored as received.
type Blob struct {
	UserID     string    `json:"user_id"`
	IV         string    `json:"iv"`
	Ciphertext string    `json:"ciphertext"`
	UpdatedAt  time.Time `json:"updated_at"`
}
