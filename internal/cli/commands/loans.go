package commands

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kassolend/console/internal/cli/ux"
	"github.com/kassolend/console/internal/loans"
	"github.com/kassolend/console/internal/models"
)

// NewLoansCmd creates the loans command group
func NewLoansCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "loans",
		Aliases: []string{"loan"},
		Short:   "Inspect, price and originate loans",
	}

	cmd.AddCommand(newLoansListCmd(opts))
	cmd.AddCommand(newLoansGetCmd(opts))
	cmd.AddCommand(newLoansSchedulesCmd(opts))
	cmd.AddCommand(newLoansRepaymentsCmd(opts))
	cmd.AddCommand(newLoansCalcCmd(opts))
	cmd.AddCommand(newLoansCreateCmd(opts))
	return cmd
}

func loansService(e *env) *loans.Service {
	return loans.NewService(e.client, e.logger)
}

func newLoansListCmd(opts []Option) *cobra.Command {
	var f models.LoanFilters
	var status string
	var page, size int

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List loans",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermViewLoan); err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("--page starts at 1")
			}

			f.LoanStatus = models.LoanStatus(strings.ToUpper(status))
			f.Page = models.IntPtr(page - 1)
			f.Size = models.IntPtr(size)

			res, err := loansService(e).List(cmd.Context(), f)
			if err != nil {
				return e.finish(err)
			}
			if len(res.Data) == 0 {
				fmt.Fprintln(e.out, "No loans found.")
				return nil
			}
			printLoans(e, res.Data)
			fmt.Fprintln(e.out, ux.Styles.Muted.Render(
				fmt.Sprintf("Page %d of %d (%d loans)", res.Page+1, max(res.TotalPages, 1), res.Total)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&f.CustomerID, "customer", 0, "Only loans of this customer")
	flags.Int64Var(&f.LoanOfficerID, "officer", 0, "Only loans of this loan officer")
	flags.StringVar(&f.LoanReference, "reference", "", "Only the loan with this reference")
	flags.StringVar(&status, "status", "", "Only loans in this status")
	flags.StringVar(&f.FromDate, "from", "", "Disbursed on or after (YYYY-MM-DD)")
	flags.StringVar(&f.ToDate, "to", "", "Disbursed on or before (YYYY-MM-DD)")
	flags.IntVar(&page, "page", 1, "Page number, starting at 1")
	flags.IntVar(&size, "limit", models.DefaultPageSize, "Loans per page")
	return cmd
}

func newLoansGetCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "get <loan-id|reference>",
		Short: "Show a loan's terms and repayment progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermViewLoan); err != nil {
				return err
			}

			svc := loansService(e)
			var loan *models.LoanDetail
			if id, convErr := strconv.ParseInt(args[0], 10, 64); convErr == nil {
				loan, err = svc.Get(cmd.Context(), id)
			} else {
				loan, err = svc.Summary(cmd.Context(), args[0])
			}
			if err != nil {
				return e.finish(err)
			}
			if loan == nil {
				return fmt.Errorf("no loan with reference %s", args[0])
			}

			printLoanDetail(e, loan)
			return nil
		},
	}
}

func newLoansSchedulesCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "schedules <loan-id>",
		Short: "Show a loan's installment schedule",
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
			if err := e.requirePermission(models.PermViewLoan); err != nil {
				return err
			}

			schedules, err := loansService(e).Schedules(cmd.Context(), id)
			if err != nil {
				return e.finish(err)
			}

			w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tDUE\tEXPECTED\tPAID\tREMAINING\tSTATUS")
			for i, s := range schedules {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					i+1,
					ux.Date(s.DueDate),
					ux.Currency(s.ExpectedAmount),
					ux.Currency(s.PaidAmount),
					ux.Currency(s.RemainingAmount),
					ux.Status(s.Status),
				)
			}
			w.Flush()
			return nil
		},
	}
}

func newLoansRepaymentsCmd(opts []Option) *cobra.Command {
	var statement bool

	cmd := &cobra.Command{
		Use:   "repayments <loan-id>",
		Short: "Show the payments received against a loan",
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
			if err := e.requirePermission(models.PermViewLoan); err != nil {
				return err
			}

			svc := loansService(e)
			var repayments []models.LoanRepayment
			if statement {
				repayments, err = svc.StatementRepayments(cmd.Context(), id)
			} else {
				repayments, err = svc.Repayments(cmd.Context(), id)
			}
			if err != nil {
				return e.finish(err)
			}
			if len(repayments) == 0 {
				fmt.Fprintln(e.out, "No repayments yet.")
				return nil
			}

			w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tAMOUNT\tMETHOD\tREFERENCE")
			for _, r := range repayments {
				amount := r.Amount
				if amount == 0 {
					amount = r.AmountPaid
				}
				method := r.PaymentMethod
				if method == "" {
					method = r.PaymentChannel
				}
				ref := r.TransactionReference
				if ref == "" {
					ref = r.MpesaReference
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ux.Date(r.PaymentDate), ux.Currency(amount), method, ref)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().BoolVar(&statement, "statement", false, "Use the loan statement listing")
	return cmd
}

func newLoansCalcCmd(opts []Option) *cobra.Command {
	var principal, topUp float64
	var tenure int
	var unit string
	var topUpLoan int64

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Price a loan or a top-up on an existing loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermViewLoan); err != nil {
				return err
			}

			svc := loansService(e)
			tenureUnit := models.TenureUnit(strings.ToUpper(unit))
			var quote *models.LoanCalculatorResponse
			if topUpLoan != 0 {
				quote, err = svc.CalculateTopUp(cmd.Context(), models.LoanTopUpRequest{
					LoanID:      topUpLoan,
					TopUpAmount: topUp,
					TenureValue: tenure,
					TenureUnit:  tenureUnit,
				})
			} else {
				quote, err = svc.Calculate(cmd.Context(), models.LoanCalculatorRequest{
					PrincipalAmount: principal,
					TenureValue:     tenure,
					TenureUnit:      tenureUnit,
				})
			}
			if err != nil {
				return e.finish(err)
			}

			w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Principal\t%s\n", ux.Currency(quote.PrincipalAmount))
			fmt.Fprintf(w, "Interest (%s)\t%s\n", ux.Percent(quote.InterestRate), ux.Currency(quote.InterestAmount))
			fmt.Fprintf(w, "Total\t%s\n", ux.Currency(quote.TotalAmount))
			fmt.Fprintf(w, "Installments\t%d x %s\n", quote.NumberOfInstallments, ux.Currency(quote.InstallmentAmount))
			fmt.Fprintf(w, "Tenure\t%d %s\n", quote.TenureValue, strings.ToLower(string(quote.TenureUnit)))
			w.Flush()
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&principal, "principal", 0, "Amount to borrow")
	f.IntVar(&tenure, "tenure", 0, "Tenure length")
	f.StringVar(&unit, "unit", string(models.TenureMonths), "Tenure unit: DAYS, WEEKS or MONTHS")
	f.Int64Var(&topUpLoan, "top-up-loan", 0, "Price a top-up on this loan instead")
	f.Float64Var(&topUp, "top-up", 0, "Top-up amount (with --top-up-loan)")
	return cmd
}

func newLoansCreateCmd(opts []Option) *cobra.Command {
	var dto models.CreateLoanDTO
	var unit, method string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Originate a loan for a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermCreateLoan); err != nil {
				return err
			}

			dto.TenureUnit = models.TenureUnit(strings.ToUpper(unit))
			dto.DisbursementMethod = models.DisbursementMethod(strings.ToUpper(method))
			if dto.DisbursementDate == "" {
				dto.DisbursementDate = time.Now().Format(time.DateOnly)
			}
			if dto.LoanOfficerID == 0 {
				dto.LoanOfficerID = e.state.User().ID
			}

			loan, err := loansService(e).Create(cmd.Context(), dto)
			if err != nil {
				return e.finish(err)
			}
			ux.Success(e.out, "Created loan %s for %s", loan.LoanReference, loan.CustomerName)
			fmt.Fprintf(e.out, "  Total: %s, installment %s\n",
				ux.Currency(loan.TotalLoanAmount), ux.Currency(loan.InstallmentAmount))
			return nil
		},
	}

	f := cmd.Flags()
	f.Int64Var(&dto.CustomerID, "customer", 0, "Borrowing customer ID")
	f.Float64Var(&dto.PrincipalAmount, "principal", 0, "Amount to lend")
	f.IntVar(&dto.TenureValue, "tenure", 0, "Tenure length")
	f.StringVar(&unit, "unit", string(models.TenureMonths), "Tenure unit: DAYS, WEEKS or MONTHS")
	f.StringVar(&dto.DisbursementDate, "disbursed", "", "Disbursement date (YYYY-MM-DD, default today)")
	f.Float64Var(&dto.DisbursementCost, "cost", 0, "Disbursement cost")
	f.StringVar(&method, "method", string(models.DisbursementMpesa), "MPESA, BANK_TRANSFER or CASH")
	f.Int64Var(&dto.LoanOfficerID, "officer", 0, "Responsible loan officer ID (defaults to you)")
	return cmd
}

func printLoans(e *env, list []models.LoanDetail) {
	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREFERENCE\tCUSTOMER\tTOTAL\tREPAID\tDUE\tSTATUS")
	for _, l := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.LoanID,
			l.LoanReference,
			ux.Truncate(l.CustomerName, 25),
			ux.Currency(l.TotalLoanAmount),
			ux.Percent(l.RepaymentPercentage),
			ux.Date(l.DueDate),
			ux.Status(string(l.LoanStatus)),
		)
	}
	w.Flush()
}

func printLoanDetail(e *env, l *models.LoanDetail) {
	ux.Title(e.out, "Loan %s", l.LoanReference)
	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%d\n", l.LoanID)
	fmt.Fprintf(w, "Customer\t%s (%d)\n", l.CustomerName, l.CustomerID)
	fmt.Fprintf(w, "Officer\t%s\n", l.LoanOfficerName)
	fmt.Fprintf(w, "Status\t%s\n", ux.Status(string(l.LoanStatus)))
	fmt.Fprintf(w, "Principal\t%s\n", ux.Currency(l.PrincipalAmount))
	fmt.Fprintf(w, "Interest\t%s\n", ux.Currency(l.InterestAmount))
	fmt.Fprintf(w, "Total\t%s\n", ux.Currency(l.TotalLoanAmount))
	if l.TenureValue > 0 {
		fmt.Fprintf(w, "Tenure\t%d %s\n", l.TenureValue, strings.ToLower(string(l.TenureUnit)))
	}
	fmt.Fprintf(w, "Disbursed\t%s via %s\n", ux.Date(l.DisbursementDate), l.DisbursementMethod)
	fmt.Fprintf(w, "Due\t%s\n", ux.Date(l.DueDate))
	fmt.Fprintf(w, "Repaid\t%s (%s)\n", ux.Currency(l.TotalRepaid), ux.Percent(l.RepaymentPercentage))
	if l.OutstandingBalance != nil {
		fmt.Fprintf(w, "Outstanding\t%s\n", ux.Currency(*l.OutstandingBalance))
	}
	if l.Arrears > 0 {
		fmt.Fprintf(w, "Arrears\t%s\n", ux.Styles.Error.Render(ux.Currency(l.Arrears)))
	}
	if l.RemainingToSeventyPercent > 0 {
		fmt.Fprintf(w, "Top-up after\t%s more\n", ux.Currency(l.RemainingToSeventyPercent))
	}
	w.Flush()
}
