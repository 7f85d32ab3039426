package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/kassolend/console/internal/cli/loginselect"
	"github.com/kassolend/console/internal/cli/userconfig"
	"github.com/kassolend/console/internal/cli/ux"
	"github.com/kassolend/console/internal/models"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts ...Option) *cobra.Command {
	var username, password, userType string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the lending backend",
		Long: `Sign in as an administrator or a loan officer.

The token is kept in the OS keychain until you log out or the backend ends the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			return runLogin(cmd, e, username, password, userType)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (or set KASSOLEND_USERNAME)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (or set KASSOLEND_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVarP(&userType, "type", "t", "", "Sign in as admin or loan-officer (will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, e *env, username, password, userType string) error {
	// Check for environment variables (useful for CI/CD)
	if username == "" {
		username = os.Getenv("KASSOLEND_USERNAME")
	}
	if password == "" {
		password = os.Getenv("KASSOLEND_PASSWORD")
	}

	if username == "" {
		if !e.interactive {
			return fmt.Errorf("username is required (use --username flag or KASSOLEND_USERNAME env var)")
		}
		var err error
		if username, err = e.readLine("Username"); err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(username)
	}

	kind, err := loginselect.ResolveUserType(userType, e.interactive, e.prompt)
	if err != nil {
		return err
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if !e.interactive {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or KASSOLEND_PASSWORD env var)")
		}
		if password, err = e.readPass(); err != nil {
			return err
		}
	}

	fmt.Fprintf(e.out, "Logging in to %s as %s...\n", e.cfg.API.BaseURL, kind)

	res, err := e.auth.Login(cmd.Context(), models.LoginCredentials{Username: username, Password: password}, kind)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	e.state.SetUser(res.User)

	if err := userconfig.RememberLogin(e.cfg.API.BaseURL, string(kind)); err != nil {
		// Don't fail if we can't save, just continue
		ux.Warn(e.errOut, "failed to remember login settings: %v", err)
	}

	ux.Success(e.out, "Login successful!")
	fmt.Fprintf(e.out, "  User: %s (%s)\n", res.User.FullName(), res.User.Username)
	fmt.Fprintf(e.out, "  Role: %s\n", res.User.Role)

	return nil
}

func promptLine(label string) (string, error) {
	prompt := promptui.Prompt{Label: label}
	return prompt.Run()
}
