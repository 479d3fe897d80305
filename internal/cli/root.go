package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gobarber/gobarber/internal/cli/commands"
	"github.com/gobarber/gobarber/internal/logger"
)

var version = "dev" // Will be set during build

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "gobarber",
	Short: "GoBarber - Book appointments with your barber",
	Long: `GoBarber CLI - Sign in, manage your profile and book appointments.

Your session is saved between runs, so you only need to sign in once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		log.Logger = logger.New(os.Stderr, level, "console")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs to stderr")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gobarber version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSignInCmd())
	rootCmd.AddCommand(commands.NewSignUpCmd())
	rootCmd.AddCommand(commands.NewSignOutCmd())
	rootCmd.AddCommand(commands.NewForgotPasswordCmd())
	rootCmd.AddCommand(commands.NewResetPasswordCmd())
	rootCmd.AddCommand(commands.NewProfileCmd())
	rootCmd.AddCommand(commands.NewAvatarCmd())
	rootCmd.AddCommand(commands.NewDashboardCmd())
	rootCmd.AddCommand(commands.NewBookCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
