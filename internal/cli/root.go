package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kassolend/console/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd assembles the kassolend command tree. opts are handed to every
// command that talks to the backend.
func NewRootCmd(opts ...commands.Option) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kassolend",
		Short: "Kassolend - lending console",
		Long: `Kassolend CLI - work with customers, loans and loan officers from the terminal.

Every request carries your session token. When the backend ends the session
you are signed out and asked to log in again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("api-url", "", "Backend API address (overrides kassolend.yaml and KASSOLEND_API_URL)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kassolend version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd(opts...))
	rootCmd.AddCommand(commands.NewLogoutCmd(opts...))
	rootCmd.AddCommand(commands.NewWhoamiCmd(opts...))
	rootCmd.AddCommand(commands.NewCustomersCmd(opts...))
	rootCmd.AddCommand(commands.NewLoansCmd(opts...))
	rootCmd.AddCommand(commands.NewOfficersCmd(opts...))
	rootCmd.AddCommand(commands.NewDashCmd(opts...))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
