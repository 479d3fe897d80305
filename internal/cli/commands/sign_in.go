package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobarber/gobarber/internal/cli/forms"
	"github.com/gobarber/gobarber/internal/session"
)

// NewSignInCmd creates the sign-in command
func NewSignInCmd(opts ...Option) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:     "sign-in",
		Aliases: []string{"login"},
		Short:   "Sign in to GoBarber",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignIn(cmd.Context(), email, password, opts...)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set GOBARBER_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set GOBARBER_PASSWORD, will prompt if not provided)")

	return cmd
}

func runSignIn(ctx context.Context, email, password string, opts ...Option) error {
	rt, err := open(ctx, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	// Check for environment variables (useful for CI/CD)
	email = envOr(email, "GOBARBER_EMAIL")
	password = envOr(password, "GOBARBER_PASSWORD")

	if email, err = ask(email, "Email", "--email flag or GOBARBER_EMAIL env var", false); err != nil {
		return err
	}
	if password, err = ask(password, "Password", "--password flag or GOBARBER_PASSWORD env var", true); err != nil {
		return err
	}

	form := forms.SignIn{Email: email, Password: password}
	if err := checkForm(rt.out, form); err != nil {
		return err
	}

	fmt.Fprintf(rt.out, "Signing in to %s...\n", rt.api.BaseURL())

	if err := rt.sessions.SignIn(ctx, form.Email, form.Password); err != nil {
		if errors.Is(err, session.ErrAuthentication) {
			return fmt.Errorf("sign-in failed, check your credentials and try again: %w", err)
		}
		return err
	}

	user, _ := rt.sessions.CurrentUser()
	fmt.Fprintln(rt.out, "✓ Signed in!")
	rt.printUser(user)

	return nil
}
