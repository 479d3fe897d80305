package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/gobarber/gobarber/internal/cli/client"
	"github.com/gobarber/gobarber/internal/cli/forms"
	"github.com/gobarber/gobarber/internal/session"
)

// NewProfileCmd creates the profile command and its update subcommand
func NewProfileCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(cmd.Context(), opts...)
		},
	}

	cmd.AddCommand(newProfileUpdateCmd(opts...))

	return cmd
}

func runProfile(ctx context.Context, opts ...Option) error {
	rt, err := open(ctx, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	if _, err := rt.requireSession(); err != nil {
		return err
	}

	user, err := rt.api.GetProfile(ctx)
	if err != nil {
		return rt.apiFailure(ctx, "loading profile", err)
	}

	if err := rt.syncUser(ctx, *user); err != nil {
		return err
	}

	rt.printUser(*user)

	return nil
}

func newProfileUpdateCmd(opts ...Option) *cobra.Command {
	var form forms.Profile

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change name, email or password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileUpdate(cmd.Context(), form, opts...)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "New name (defaults to the current one)")
	cmd.Flags().StringVar(&form.Email, "email", "", "New email (defaults to the current one)")
	cmd.Flags().StringVar(&form.OldPassword, "old-password", "", "Current password, required to change it")
	cmd.Flags().StringVar(&form.Password, "password", "", "New password")
	cmd.Flags().StringVar(&form.PasswordConfirmation, "password-confirmation", "", "New password again")

	return cmd
}

func runProfileUpdate(ctx context.Context, form forms.Profile, opts ...Option) error {
	rt, err := open(ctx, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	current, err := rt.requireSession()
	if err != nil {
		return err
	}

	if form.Name == "" {
		form.Name = current.Name
	}
	if form.Email == "" {
		form.Email = current.Email
	}

	if form.OldPassword != "" {
		if form.Password, err = ask(form.Password, "New password", "--password flag", true); err != nil {
			return err
		}
		if form.PasswordConfirmation, err = ask(form.PasswordConfirmation, "Confirm password", "--password-confirmation flag", true); err != nil {
			return err
		}
	}

	if err := checkForm(rt.out, form); err != nil {
		return err
	}

	user, err := rt.api.UpdateProfile(ctx, form.Request())
	if err != nil {
		if client.IsStatus(err, http.StatusConflict) {
			return fmt.Errorf("email %s is already in use", form.Email)
		}
		return rt.apiFailure(ctx, "profile update", err)
	}

	if err := rt.syncUser(ctx, *user); err != nil {
		return err
	}

	fmt.Fprintln(rt.out, "✓ Profile updated!")
	rt.printUser(*user)

	return nil
}

// syncUser replaces the saved user with what the server returned
func (rt *runtime) syncUser(ctx context.Context, user session.User) error {
	if err := rt.sessions.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
