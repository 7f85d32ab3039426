package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kassolend/console/internal/cli/ux"
	"github.com/kassolend/console/internal/models"
	"github.com/kassolend/console/internal/officers"
)

// NewOfficersCmd creates the officers command group
func NewOfficersCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "officers",
		Aliases: []string{"officer"},
		Short:   "Manage loan officers",
	}
	cmd.AddCommand(newOfficersListCmd(opts))
	cmd.AddCommand(newOfficersCreateCmd(opts))
	return cmd
}

func newOfficersListCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List loan officers and their portfolio size",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermViewUser); err != nil {
				return err
			}

			list, err := officers.NewService(e.client).List(cmd.Context())
			if err != nil {
				return e.finish(err)
			}
			if len(list) == 0 {
				fmt.Fprintln(e.out, "No loan officers yet.")
				return nil
			}

			w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tUSERNAME\tPHONE\tCUSTOMERS\tLOANS\tACTIVE")
			for _, o := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%t\n",
					o.LoanOfficerID, o.FullName, o.Username, ux.Phone(o.PhoneNumber),
					o.CustomersCount, o.LoansCount, o.Active)
			}
			w.Flush()
			return nil
		},
	}
}

func newOfficersCreateCmd(opts []Option) *cobra.Command {
	var dto models.CreateLoanOfficerDTO

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a loan officer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermCreateUser); err != nil {
				return err
			}

			created, err := officers.NewService(e.client).Create(cmd.Context(), dto)
			if err != nil {
				return e.finish(err)
			}
			ux.Success(e.out, "Created loan officer %s (ID %d)", created.Username, created.LoanOfficerID)
			fmt.Fprintln(e.out, ux.Styles.Muted.Render("They sign in with the initial password and must change it."))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dto.FirstName, "first-name", "", "First name")
	f.StringVar(&dto.MiddleName, "middle-name", "", "Middle name")
	f.StringVar(&dto.LastName, "last-name", "", "Last name")
	f.StringVar(&dto.Username, "username", "", "Sign-in username")
	f.StringVar(&dto.PhoneNumber, "phone", "", "Phone number (2547XXXXXXXX)")
	return cmd
}
