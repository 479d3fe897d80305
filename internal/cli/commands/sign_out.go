package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSignOutCmd creates the sign-out command
func NewSignOutCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:     "sign-out",
		Aliases: []string{"logout"},
		Short:   "Sign out and forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignOut(cmd.Context(), opts...)
		},
	}
}

func runSignOut(ctx context.Context, opts ...Option) error {
	rt, err := open(ctx, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	user, signedIn := rt.sessions.CurrentUser()

	if err := rt.sessions.SignOut(ctx); err != nil {
		return err
	}

	if signedIn {
		fmt.Fprintf(rt.out, "✓ Signed out %s\n", user.Email)
	} else {
		fmt.Fprintln(rt.out, "Not signed in.")
	}

	return nil
}
