package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewAvatarCmd creates the avatar command
func NewAvatarCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <image-file>",
		Short: "Upload a new avatar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAvatar(cmd.Context(), args[0], opts...)
		},
	}
}

func runAvatar(ctx context.Context, path string, opts ...Option) error {
	rt, err := open(ctx, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	if _, err := rt.requireSession(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open avatar: %w", err)
	}
	defer f.Close()

	user, err := rt.api.UpdateAvatar(ctx, path, f)
	if err != nil {
		return rt.apiFailure(ctx, "avatar upload", err)
	}

	if err := rt.syncUser(ctx, *user); err != nil {
		return err
	}

	fmt.Fprintln(rt.out, "✓ Avatar updated!")
	rt.printUser(*user)

	return nil
}
