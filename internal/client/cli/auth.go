package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophstore/internal/client/guard"
)

// The get* variables are indirections used to facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getNewPassword = GetNewPassword
var getMultiline = GetMultiline

// Register prompts for a username, an email and a password and creates the
// account. The returned token pair is stored, so the user is logged in
// afterwards.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getNewPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	if err := a.auth.Register(ctx, username, email, password); err != nil {
		return err
	}
	a.afterLogin(ctx)
	a.printf("Registered as %s\n", username)
	return nil
}

// Login prompts for credentials and opens a session. On failure nothing is
// stored and the previous session, if any, is left as it was.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	if err := a.auth.Login(ctx, username, password); err != nil {
		a.logger.Info(ctx, "login unsuccessful", "username", username, "error", err)
		return err
	}
	a.afterLogin(ctx)
	a.printf("Logged in as %s\n", username)
	return nil
}

// afterLogin resets per-session state and prefetches the profile.
func (a *App) afterLogin(ctx context.Context) {
	a.profile.Reset()
	a.nav.Reset()
	if err := a.loadProfile(ctx, guard.Home); err != nil {
		a.logger.Warn(ctx, "load profile", "error", err)
	}
}

// Logout drops the local tokens and every cached view of the session.
// Uploads already queued keep running until they fail or finish.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.profile.Reset()
	a.nav.Reset()
	a.printf("Logged out\n")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	if err := a.require(ctx, "whoami"); err != nil {
		return err
	}
	u, ok := a.profile.User()
	if !ok {
		me, err := a.users.Me(ctx)
		if err != nil {
			return err
		}
		a.profile.Set(*me)
		u = *me
	}
	a.printf("%s <%s> role=%s\n", u.Username, u.Email, u.Role)
	return nil
}

// Users lists all accounts. The server only allows it for admins.
func (a *App) Users(ctx context.Context) error {
	if err := a.require(ctx, "users"); err != nil {
		return err
	}
	list, err := a.users.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE")
	for _, u := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role)
	}
	return tw.Flush()
}
