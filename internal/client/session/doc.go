// Package session owns the "am I unlocked" state of the client.
//
// A Controller moves between three states:
//
//	LoggedOut  no key in memory and no usable persisted session
//	Locked     a persisted session exists but secondary verification is
//	           required before the key is loaded
//	Unlocked   the key is held in memory, sealed in a memguard enclave
//
// Login and Register authenticate remotely, fetch or create the account
// salt and derive the key from the password. The derived key, the profile
// and an expiry are persisted so a later RestoreSession can pick the
// session up without the password. The expiry only moves forward, except
// on Logout and DisableSecondaryVerification.
//
// When the remote is unreachable, Login falls back to the locally mirrored
// profile and accepts the password only if the derived key decrypts the
// cached wallet (see KeyProver).
package session
