package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kassolend/console/internal/cli/ux"
	"github.com/kassolend/console/internal/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <api-url>",
		Short: "Point this directory at a lending backend",
		Long: `Writes kassolend.yaml in the current directory. An existing file keeps
its other settings and only has the API address replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	apiURL := args[0]
	out := cmd.OutOrStdout()

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = config.Default()
		isNewConfig = true
	}

	if cfg.API.BaseURL == apiURL && !isNewConfig {
		fmt.Fprintf(out, "API %s is already configured\n", apiURL)
		return nil
	}

	cfg.API.BaseURL = apiURL
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		ux.Success(out, "Created ./%s for %s", config.ConfigFileName, apiURL)
	} else {
		ux.Success(out, "Updated ./%s to use %s", config.ConfigFileName, apiURL)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  Run 'kassolend login' to authenticate")

	return nil
}
