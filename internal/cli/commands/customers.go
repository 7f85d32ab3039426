package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kassolend/console/internal/cli/ux"
	"github.com/kassolend/console/internal/customers"
	"github.com/kassolend/console/internal/models"
)

// NewCustomersCmd creates the customers command group
func NewCustomersCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customers",
		Aliases: []string{"customer", "cust"},
		Short:   "Manage borrowers",
	}

	cmd.AddCommand(newCustomersListCmd(opts))
	cmd.AddCommand(newCustomersGetCmd(opts))
	cmd.AddCommand(newCustomersSearchCmd(opts))
	cmd.AddCommand(newCustomersCreateCmd(opts))
	cmd.AddCommand(newCustomersDeleteCmd(opts))
	return cmd
}

func newCustomersListCmd(opts []Option) *cobra.Command {
	var page, limit int
	var status, search, sortBy, order string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List customers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermViewCustomer); err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("--page starts at 1")
			}

			svc := customers.NewService(e.client, e.logger)
			res, err := svc.List(cmd.Context(), models.PaginationParams{
				Page:      models.IntPtr(page - 1),
				Limit:     models.IntPtr(limit),
				SortBy:    sortBy,
				SortOrder: order,
				Status:    status,
				Search:    search,
			})
			if err != nil {
				return e.finish(err)
			}

			if len(res.Data) == 0 {
				fmt.Fprintln(e.out, "No customers found.")
				return nil
			}
			printCustomers(e, res.Data)
			fmt.Fprintln(e.out, ux.Styles.Muted.Render(
				fmt.Sprintf("Page %d of %d (%d customers)", res.Page+1, max(res.TotalPages, 1), res.Total)))
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", models.DefaultPageSize, "Customers per page")
	cmd.Flags().StringVar(&status, "status", "", "Only customers with this status")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name, ID number or phone")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Field to sort by")
	cmd.Flags().StringVar(&order, "order", "", "Sort order (asc or desc)")
	return cmd
}

func newCustomersGetCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "get <customer-id>",
		Short: "Show a customer and their running loans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermViewCustomer); err != nil {
				return err
			}

			svc := customers.NewService(e.client, e.logger)
			c, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return e.finish(err)
			}

			ux.Title(e.out, "%s", c.FullName)
			w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\t%d\n", c.CustomerID)
			fmt.Fprintf(w, "ID number\t%s\n", c.IDNumber)
			fmt.Fprintf(w, "Phone\t%s\n", ux.Phone(c.PhoneNumber))
			fmt.Fprintf(w, "Mobile money\t%s\n", ux.Phone(c.MobileMoneyNumber))
			fmt.Fprintf(w, "Email\t%s\n", c.EmailAddress)
			fmt.Fprintf(w, "Date of birth\t%s\n", ux.Date(c.DateOfBirth))
			fmt.Fprintf(w, "Town\t%s\n", c.TownOrArea)
			fmt.Fprintf(w, "Status\t%s\n", ux.Status(c.Status))
			fmt.Fprintf(w, "Loan officer\t%d\n", c.LoanOfficerID)
			w.Flush()

			if e.state.HasPermission(models.PermViewLoan) {
				active, err := loansService(e).CustomerActiveLoans(cmd.Context(), id)
				if err != nil {
					return e.finish(err)
				}
				fmt.Fprintln(e.out)
				if len(active) == 0 {
					fmt.Fprintln(e.out, "No active loans.")
					return nil
				}
				printLoans(e, active)
			}
			return nil
		},
	}
}

func newCustomersSearchCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find customers by name, ID number or phone",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermViewCustomer); err != nil {
				return err
			}

			found, err := customers.NewService(e.client, e.logger).Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return e.finish(err)
			}
			if len(found) == 0 {
				fmt.Fprintln(e.out, "No customers found.")
				return nil
			}
			printCustomers(e, found)
			return nil
		},
	}
}

func newCustomersCreateCmd(opts []Option) *cobra.Command {
	var dto models.CreateCustomerDTO
	var middleName, gender, marital string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermCreateCustomer); err != nil {
				return err
			}

			dto.Gender = models.Gender(strings.ToUpper(gender))
			dto.MaritalStatus = models.MaritalStatus(strings.ToUpper(marital))
			names := []string{dto.FirstName}
			if middleName != "" {
				dto.MiddleName = &middleName
				names = append(names, middleName)
			}
			dto.FullName = strings.Join(append(names, dto.LastName), " ")
			if dto.MobileMoneyNumber == "" {
				dto.MobileMoneyNumber = dto.PhoneNumber
			}
			// Officers register customers into their own portfolio
			if dto.LoanOfficerID == 0 && e.state.User().Role == models.RoleLoanOfficer {
				dto.LoanOfficerID = e.state.User().ID
			}

			created, err := customers.NewService(e.client, e.logger).Create(cmd.Context(), dto)
			if err != nil {
				return e.finish(err)
			}
			ux.Success(e.out, "Created customer %s (ID %d)", created.FullName, created.CustomerID)
			fmt.Fprintln(e.out, ux.Styles.Muted.Render("The mobile app PIN is the last 4 digits of the phone number."))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dto.FirstName, "first-name", "", "First name")
	f.StringVar(&middleName, "middle-name", "", "Middle name")
	f.StringVar(&dto.LastName, "last-name", "", "Last name")
	f.StringVar(&dto.IDNumber, "id-number", "", "National ID number")
	f.StringVar(&dto.DateOfBirth, "dob", "", "Date of birth (YYYY-MM-DD)")
	f.StringVar(&gender, "gender", "", "MALE, FEMALE or OTHER")
	f.StringVar(&marital, "marital-status", "SINGLE", "SINGLE, MARRIED, DIVORCED or WIDOWED")
	f.StringVar(&dto.PhoneNumber, "phone", "", "Phone number (2547XXXXXXXX)")
	f.StringVar(&dto.MobileMoneyNumber, "mobile-money", "", "Mobile money number (defaults to --phone)")
	f.StringVar(&dto.EmailAddress, "email", "", "Email address")
	f.StringVar(&dto.ResidentialAddress, "address", "", "Residential address")
	f.StringVar(&dto.TownOrArea, "town", "", "Town or area")
	f.Int64Var(&dto.LoanOfficerID, "officer", 0, "Owning loan officer ID (defaults to you when signed in as an officer)")
	return cmd
}

func newCustomersDeleteCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <customer-id>",
		Short: "Delete a customer with no running loans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermDeleteCustomer); err != nil {
				return err
			}

			if err := customers.NewService(e.client, e.logger).Delete(cmd.Context(), id); err != nil {
				return e.finish(err)
			}
			ux.Success(e.out, "Deleted customer %d", id)
			return nil
		},
	}
}

func printCustomers(e *env, list []models.Customer) {
	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tID NUMBER\tPHONE\tTOWN\tSTATUS")
	for _, c := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.CustomerID,
			ux.Truncate(c.FullName, 30),
			c.IDNumber,
			ux.Phone(c.PhoneNumber),
			c.TownOrArea,
			ux.Status(c.Status),
		)
	}
	w.Flush()
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive number")
	}
	return id, nil
}
