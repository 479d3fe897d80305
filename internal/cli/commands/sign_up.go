package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/gobarber/gobarber/internal/cli/client"
	"github.com/gobarber/gobarber/internal/cli/forms"
)

// NewSignUpCmd creates the sign-up command
func NewSignUpCmd(opts ...Option) *cobra.Command {
	var form forms.SignUp

	cmd := &cobra.Command{
		Use:     "sign-up",
		Aliases: []string{"register"},
		Short:   "Create a GoBarber account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignUp(cmd.Context(), form, opts...)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password, at least 6 characters (will prompt if not provided)")

	return cmd
}

func runSignUp(ctx context.Context, form forms.SignUp, opts ...Option) error {
	rt, err := open(ctx, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	if form.Name, err = ask(form.Name, "Name", "--name flag", false); err != nil {
		return err
	}
	if form.Email, err = ask(form.Email, "Email", "--email flag", false); err != nil {
		return err
	}
	if form.Password, err = ask(form.Password, "Password", "--password flag", true); err != nil {
		return err
	}

	if err := checkForm(rt.out, form); err != nil {
		return err
	}

	user, err := rt.api.CreateUser(ctx, form.Request())
	if err != nil {
		if client.IsStatus(err, http.StatusConflict) {
			return fmt.Errorf("an account with email %s already exists", form.Email)
		}
		return rt.apiFailure(ctx, "sign-up", err)
	}

	fmt.Fprintln(rt.out, "✓ Account created!")
	rt.printUser(*user)
	fmt.Fprintln(rt.out, "\nRun 'gobarber sign-in' to start booking.")

	return nil
}
