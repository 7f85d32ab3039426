package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/kassolend/console/internal/cli/ux"
	"github.com/kassolend/console/internal/dashboard"
	"github.com/kassolend/console/internal/models"
)

// NewDashCmd creates the dash command
func NewDashCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Show portfolio statistics and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := e.requirePermission(models.PermViewReports); err != nil {
				return err
			}

			svc := dashboard.NewService(e.client)
			stats, err := svc.Stats(cmd.Context())
			if err != nil {
				return e.finish(err)
			}
			activities, err := svc.RecentActivities(cmd.Context())
			if err != nil {
				return e.finish(err)
			}

			ux.Title(e.out, "Portfolio")
			w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Customers\t%d\n", stats.TotalCustomers)
			fmt.Fprintf(w, "Loans\t%d\n", stats.TotalLoans)
			fmt.Fprintf(w, "Active loans\t%d\n", stats.ActiveLoans)
			fmt.Fprintf(w, "Pending approval\t%d\n", stats.PendingApprovals)
			fmt.Fprintf(w, "Defaulted\t%d\n", stats.DefaultedLoans)
			fmt.Fprintf(w, "Disbursed\t%s\n", ux.Currency(stats.TotalDisbursed))
			w.Flush()

			fmt.Fprintln(e.out)
			ux.Title(e.out, "Recent activity")
			if len(activities) == 0 {
				fmt.Fprintln(e.out, "Nothing yet.")
				return nil
			}

			// Feed entries vary by kind, so read only the fields they share
			w = tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			for _, raw := range activities {
				entry := gjson.ParseBytes(raw)
				when := "-"
				if ts := entry.Get("timestamp"); ts.Exists() {
					if t := ts.Time(); !t.IsZero() {
						when = humanize.Time(t)
					}
				}
				line := entry.Get("description").String()
				if amount := entry.Get("amount"); amount.Exists() && amount.Float() > 0 {
					line += " " + ux.Styles.Muted.Render(ux.Currency(amount.Float()))
				}
				fmt.Fprintf(w, "%s\t%s\n", when, line)
			}
			w.Flush()
			return nil
		},
	}
}
