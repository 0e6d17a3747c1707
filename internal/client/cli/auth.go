package cli

import (
	"context"
	"fmt"
	"time"
)

// logoutGrace bounds how long logout waits for the server notification.
const logoutGrace = 3 * time.Second

var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	email := fs.String("e", "", "Email address")
	if help, err := parse(fs, args); help || err != nil {
		return err
	}

	ok, err := a.session.IsLoggedIn(ctx)
	if err != nil {
		a.log.Warn(ctx, "stored session unreadable, logging in again", "error", err)
	}
	if ok {
		fmt.Fprintln(a.out, "You are already logged in.")
		a.printSession(ctx)
		a.guide("To check your current session ...", "bimio session")
		return nil
	}

	if *email == "" {
		fmt.Fprintln(a.out, "Required arguments E-mail and Password are needed ...")
		*email, err = getSimpleText(a.reader, "email", a.out)
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer wipe(password)

	res := a.session.Login(ctx, *email, string(password))
	fmt.Fprintln(a.out, res.Msg)
	if res.Error {
		return errReported
	}
	return nil
}

func (a *App) logout(ctx context.Context, args []string) error {
	fs := a.flagSet("logout")
	if help, err := parse(fs, args); help || err != nil {
		return err
	}

	res := a.session.Logout(ctx)
	if err := a.plugins.ClearCache(ctx); err != nil {
		a.log.Warn(ctx, "clearing plugin cache failed", "error", err)
	}
	fmt.Fprintln(a.out, res.Msg)

	waitCtx, cancel := context.WithTimeout(ctx, logoutGrace)
	defer cancel()
	a.session.Wait(waitCtx)

	if res.Error {
		return errReported
	}
	return nil
}

func (a *App) showSession(ctx context.Context, args []string) error {
	fs := a.flagSet("session")
	if help, err := parse(fs, args); help || err != nil {
		return err
	}

	ok, err := a.session.IsLoggedIn(ctx)
	if err != nil {
		a.log.Warn(ctx, "reading session failed", "error", err)
	}
	if !ok {
		fmt.Fprintln(a.out, "You are not logged in ...")
		a.guideLogin()
		return nil
	}
	a.printSession(ctx)
	return nil
}

func (a *App) printSession(ctx context.Context) {
	st, err := a.session.CheckSession(ctx)
	if err != nil {
		a.log.Warn(ctx, "reading session failed", "error", err)
		return
	}
	fmt.Fprintf(a.out, "Currently logged in as %s\n", st.Email)
	fmt.Fprintf(a.out, "Your session expires in %s ...\n", st.TimeLeft)
	if !st.AccessTokenExpiry.IsZero() {
		fmt.Fprintf(a.out, "Access token valid until %s\n", st.AccessTokenExpiry.Local().Format(time.DateTime))
	}
}
