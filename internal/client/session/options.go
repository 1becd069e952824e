package session

import "time"

type Options struct {
	// AllowPersistedKey stores the exported key locally so the session
	// survives restarts. When false nothing but the account profile is
	// written and RestoreSession always ends LoggedOut.
	AllowPersistedKey bool
	ShortTTL          time.Duration
	LongTTL           time.Duration
}

func DefaultOptions() Options {
	return Options{
		AllowPersistedKey: true,
		ShortTTL:          20 * time.Minute,
		LongTTL:           7 * 24 * time.Hour,
	}
}

// Option customises a Controller.
type Option func(*Controller)

func WithVerifier(v Verifier) Option {
	return func(c *Controller) { c.verifier = v }
}

func WithKeyProver(p KeyProver) Option {
	return func(c *Controller) { c.prover = p }
}

func WithClock(clock Clock) Option {
	return func(c *Controller) { c.now = clock }
}
