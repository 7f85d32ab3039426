package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kassolend/console/internal/cli/ux"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			if !e.state.IsAuthenticated() {
				fmt.Fprintln(e.out, "Not logged in.")
				return nil
			}

			// Local credentials are cleared even when the backend call fails
			if err := e.state.Logout(cmd.Context()); err != nil {
				ux.Warn(e.errOut, "backend logout failed: %v", err)
			}
			ux.Success(e.out, "Logged out")
			return nil
		},
	}
}
