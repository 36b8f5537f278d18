package cli

import (
	"context"
	"strings"
)

// MiddlewareStatus reports whether the local certificate middleware answers.
func (a *App) MiddlewareStatus(ctx context.Context) error {
	if a.mw.Status(ctx) {
		a.printf("middleware: online\n")
	} else {
		a.printf("middleware: offline\n")
	}
	return nil
}

// Certificates lists the certificate tokens the middleware knows about.
func (a *App) Certificates(ctx context.Context) error {
	tokens, err := a.mw.Certificates(ctx)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		a.printf("No certificates installed\n")
		return nil
	}
	for _, t := range tokens {
		a.printf("%s\n", t)
	}
	return nil
}

// RegisterKey uploads a public key for the current user. With a token the
// key is read from the middleware; without one it is pasted by the user.
func (a *App) RegisterKey(ctx context.Context, token string) error {
	if err := a.require(ctx, "keys"); err != nil {
		return err
	}

	var (
		key string
		err error
	)
	if token != "" {
		key, err = a.mw.PublicKey(ctx, token)
	} else {
		key, err = getMultiline(a.reader, "Paste the public key (PEM)", a.out)
	}
	if err != nil {
		return err
	}

	if err := a.users.RegisterKey(ctx, strings.TrimSpace(key)); err != nil {
		return err
	}
	a.printf("Public key registered\n")
	return nil
}

// Key prints the public key registered for the current user.
func (a *App) Key(ctx context.Context) error {
	if err := a.require(ctx, "keys"); err != nil {
		return err
	}
	key, err := a.users.PublicKey(ctx)
	if err != nil {
		return err
	}
	a.printf("%s\n", key)
	return nil
}
