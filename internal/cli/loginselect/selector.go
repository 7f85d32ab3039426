package loginselect

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/kassolend/console/internal/cli/userconfig"
	"github.com/kassolend/console/internal/models"
)

// Prompter asks the user to pick a user type, offering def first
type Prompter func(def models.UserType) (models.UserType, error)

// ParseUserType accepts the spellings people actually type
func ParseUserType(s string) (models.UserType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrator":
		return models.UserTypeAdmin, nil
	case "loan-officer", "loan_officer", "officer":
		return models.UserTypeLoanOfficer, nil
	default:
		return "", fmt.Errorf("unknown user type %q (use admin or loan-officer)", s)
	}
}

// ResolveUserType determines which sign-in endpoint to use based on the following priority:
// 1. If the --type flag is provided, use that
// 2. If running interactively, prompt with the last used type preselected
// 3. If the user signed in before, reuse that type
// 4. Otherwise, admin
func ResolveUserType(flagValue string, interactive bool, prompt Prompter) (models.UserType, error) {
	// Priority 1: explicit flag
	if flagValue != "" {
		return ParseUserType(flagValue)
	}

	last := models.UserTypeAdmin
	if cfg, err := userconfig.Load(); err == nil && cfg.LastUserType != "" {
		if parsed, err := ParseUserType(cfg.LastUserType); err == nil {
			last = parsed
		}
	}

	// Priority 2: ask
	if interactive && prompt != nil {
		return prompt(last)
	}

	// Priority 3 and 4
	return last, nil
}

// PromptUserType shows an interactive prompt for the user to select how to sign in
func PromptUserType(def models.UserType) (models.UserType, error) {
	type option struct {
		Label string
		Type  models.UserType
	}

	options := []option{
		{Label: "Administrator", Type: models.UserTypeAdmin},
		{Label: "Loan officer", Type: models.UserTypeLoanOfficer},
	}
	cursor := 0
	if def == models.UserTypeLoanOfficer {
		cursor = 1
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Sign in as",
		Items:     options,
		Templates: templates,
		CursorPos: cursor,
		Size:      len(options),
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("sign-in cancelled: %w", err)
	}

	return options[index].Type, nil
}
