package session

import "errors"

var (
	// ErrAuth means the remote rejected the credentials, or could not be
	// reached during a call that requires it.
	ErrAuth = errors.New("authentication failed")

	ErrNotUnlocked        = errors.New("session is not unlocked")
	ErrLocked             = errors.New("session is locked")
	ErrNoSession          = errors.New("no persisted session")
	ErrVerificationFailed = errors.New("secondary verification failed")
	ErrNoRemoteSession    = errors.New("no remote session to resume")
)
