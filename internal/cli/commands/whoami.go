package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kassolend/console/internal/models"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts ...Option) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and what they may do",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}

			// Without a stored user record only the backend knows who this is
			user := e.state.User()
			if remote || user == nil {
				fresh, err := e.auth.CurrentUser(cmd.Context())
				if err != nil {
					return e.finish(err)
				}
				if fresh != nil {
					user = fresh
				}
			}
			if user == nil {
				return ErrNotLoggedIn
			}

			fmt.Fprintf(e.out, "User:     %s (%s)\n", user.FullName(), user.Username)
			if user.Email != "" {
				fmt.Fprintf(e.out, "Email:    %s\n", user.Email)
			}
			fmt.Fprintf(e.out, "Role:     %s\n", user.Role)
			fmt.Fprintf(e.out, "API:      %s\n", e.cfg.API.BaseURL)

			var granted []string
			for _, p := range models.AllPermissions {
				if e.state.HasPermission(p) {
					granted = append(granted, string(p))
				}
			}
			fmt.Fprintf(e.out, "Permissions:\n  %s\n", strings.Join(granted, "\n  "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the backend for the current user instead of using the stored copy")
	return cmd
}
