package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobarber/gobarber/internal/cli/config"
	"github.com/gobarber/gobarber/internal/cli/storage"
)

// NewInitCmd creates the init command
func NewInitCmd(opts ...Option) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "init <api-url>",
		Short: "Point the CLI at a GoBarber API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			return runInit(path, args[0], backend, opts...)
		},
	}

	cmd.Flags().StringVar(&backend, "storage", "", "Session storage backend: keyring, file, redis or memory")

	return cmd
}

func runInit(path, apiURL, backend string, opts ...Option) error {
	d := newDeps(opts)

	cfg, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load existing config: %w", err)
	}

	cfg.APIURL = apiURL
	if backend != "" {
		switch backend {
		case storage.BackendKeyring, storage.BackendFile, storage.BackendRedis, storage.BackendMemory:
			cfg.Storage = backend
		default:
			return fmt.Errorf("unknown storage backend '%s'", backend)
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(d.out, "✓ Saved %s\n", path)
	fmt.Fprintf(d.out, "  API:     %s\n", cfg.APIURL)
	fmt.Fprintf(d.out, "  Storage: %s\n", cfg.Storage)

	fmt.Fprintln(d.out, "\nNext steps:")
	fmt.Fprintln(d.out, "  1. Run 'gobarber sign-up' to create an account")
	fmt.Fprintln(d.out, "  2. Run 'gobarber sign-in' to authenticate")

	return nil
}
