package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/client/api"
	"github.com/dmitrijs2005/todokeeper/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

var errNotLoggedIn = errors.New("please log in first")

// readCredentials prompts for an email and a password. The caller must wipe
// the returned password.
func (a *App) readCredentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Register prompts for an email and password and creates a new account.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	account, err := a.api.Register(ctx, email, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %d), you can log in now\n", account.Email, account.ID)
	return nil
}

// Login prompts for credentials and keeps the access token on success.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, email, string(password)); err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}

	a.userName = email
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.api.Logout()
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Me prints the account and its to-do items.
func (a *App) Me(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	account, err := a.api.Me(ctx)
	if err != nil {
		return a.handleAuthError(err)
	}

	fmt.Fprintf(a.out, "Account #%d %s (active: %t)\n", account.ID, account.Email, account.IsActive)
	printTasks(a.out, account.Todos)
	return nil
}

// Profile asks for a new email and a new password; empty answers keep the
// current value.
func (a *App) Profile(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	var upd api.ProfileUpdate

	email, err := getSimpleText(a.reader, "New email (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if email != "" {
		upd.Email = &email
	}

	fmt.Fprintln(a.out, "New password (empty to keep)")
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	if len(password) > 0 {
		p := string(password)
		upd.Password = &p
	}

	if upd.Email == nil && upd.Password == nil {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	account, err := a.api.UpdateProfile(ctx, upd)
	if err != nil {
		return a.handleAuthError(err)
	}
	a.userName = account.Email
	fmt.Fprintln(a.out, "Profile updated")
	return nil
}

// DeleteAccount removes the account after confirmation.
func (a *App) DeleteAccount(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	answer, err := getSimpleText(a.reader, "Delete the account and all its to-do items? Type 'yes' to confirm", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	if err := a.api.DeleteAccount(ctx); err != nil {
		return a.handleAuthError(err)
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}

// handleAuthError drops the session when the server no longer accepts the
// token, so the prompt reflects reality.
func (a *App) handleAuthError(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		a.api.Logout()
		a.userName = ""
		return fmt.Errorf("%w, please log in again", err)
	}
	return err
}
