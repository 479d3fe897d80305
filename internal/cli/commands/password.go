package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobarber/gobarber/internal/cli/forms"
)

// NewForgotPasswordCmd creates the forgot-password command
func NewForgotPasswordCmd(opts ...Option) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Send a password recovery email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForgotPassword(cmd.Context(), email, opts...)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email address")

	return cmd
}

func runForgotPassword(ctx context.Context, email string, opts ...Option) error {
	rt, err := open(ctx, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	if email, err = ask(email, "Email", "--email flag", false); err != nil {
		return err
	}

	form := forms.ForgotPassword{Email: email}
	if err := checkForm(rt.out, form); err != nil {
		return err
	}

	if err := rt.api.ForgotPassword(ctx, form.Email); err != nil {
		return rt.apiFailure(ctx, "password recovery", err)
	}

	fmt.Fprintf(rt.out, "✓ If %s has an account, a recovery email is on its way.\n", form.Email)
	fmt.Fprintln(rt.out, "Use the token from the email with 'gobarber reset-password --token <token>'.")

	return nil
}

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd(opts ...Option) *cobra.Command {
	var form forms.ResetPassword

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Choose a new password using a recovery token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetPassword(cmd.Context(), form, opts...)
		},
	}

	cmd.Flags().StringVar(&form.Token, "token", "", "Recovery token from the email")
	cmd.Flags().StringVar(&form.Password, "password", "", "New password (will prompt if not provided)")
	cmd.Flags().StringVar(&form.PasswordConfirmation, "password-confirmation", "", "New password again (will prompt if not provided)")

	return cmd
}

func runResetPassword(ctx context.Context, form forms.ResetPassword, opts ...Option) error {
	rt, err := open(ctx, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	if form.Token, err = ask(form.Token, "Token", "--token flag", false); err != nil {
		return err
	}
	if form.Password, err = ask(form.Password, "New password", "--password flag", true); err != nil {
		return err
	}
	if form.PasswordConfirmation, err = ask(form.PasswordConfirmation, "Confirm password", "--password-confirmation flag", true); err != nil {
		return err
	}

	if err := checkForm(rt.out, form); err != nil {
		return err
	}

	if err := rt.api.ResetPassword(ctx, form.Request()); err != nil {
		return rt.apiFailure(ctx, "password reset", err)
	}

	fmt.Fprintln(rt.out, "✓ Password changed. Run 'gobarber sign-in' with your new password.")

	return nil
}
