package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsage = errors.New("usage")

func (a *App) credentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	if email == "" {
		return "", nil, errors.New("email is required")
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	if len(password) == 0 {
		return "", nil, errors.New("password is required")
	}
	return email, password, nil
}

// Register creates the account and signs in.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Register(ctx, email, string(password)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created, signed in as %s\n", email)
	return nil
}

// Login signs in. When the server cannot be reached the session controller
// falls back to the locally cached wallet.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, email, string(password)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", email, a.mode())
	return nil
}

// Unlock runs the secondary verification and resumes a locked session.
func (a *App) Unlock(ctx context.Context) error {
	if a.session.State() != session.Locked {
		return errors.New("nothing to unlock")
	}
	if err := a.session.Unlock(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Unlocked")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// Biometric shows or toggles secondary verification. With it on, sessions
// last longer but need a confirmation after each restart.
func (a *App) Biometric(ctx context.Context, args []string) error {
	if len(args) == 0 {
		on, err := a.session.SecondaryVerificationEnabled(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Secondary verification: %s\n", onOff(on))
		return nil
	}

	if a.session.State() == session.Locked {
		return session.ErrLocked
	}

	switch args[0] {
	case "on":
		if err := a.session.EnableSecondaryVerification(ctx); err != nil {
			return err
		}
	case "off":
		if err := a.session.DisableSecondaryVerification(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: biometric on|off", errUsage)
	}
	fmt.Fprintf(a.out, "Secondary verification: %s\n", args[0])
	return nil
}

func (a *App) Status(ctx context.Context) error {
	fmt.Fprintf(a.out, "State:      %s\n", a.session.State())
	if p, ok := a.session.Profile(); ok {
		fmt.Fprintf(a.out, "User:       %s\n", p.Username)
	}
	fmt.Fprintf(a.out, "Connection: %s\n", a.mode())

	if exp, ok, err := a.session.Expiry(ctx); err == nil && ok {
		fmt.Fprintf(a.out, "Expires:    %s\n", exp.Local().Format(time.DateTime))
	}
	if on, err := a.session.SecondaryVerificationEnabled(ctx); err == nil {
		fmt.Fprintf(a.out, "Secondary:  %s\n", onOff(on))
	}
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
