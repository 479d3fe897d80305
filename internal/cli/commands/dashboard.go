package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd(opts ...Option) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "List your appointments as a provider for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if date != "" {
				var err error
				day, err = time.ParseInLocation(dateLayout, date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date '%s', expected YYYY-MM-DD", date)
				}
			}
			return runDashboard(cmd.Context(), day, opts...)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to show as YYYY-MM-DD (defaults to today)")

	return cmd
}

func runDashboard(ctx context.Context, day time.Time, opts ...Option) error {
	rt, err := open(ctx, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	user, err := rt.requireSession()
	if err != nil {
		return err
	}

	appointments, err := rt.api.ListAppointments(ctx, day)
	if err != nil {
		return rt.apiFailure(ctx, "loading appointments", err)
	}

	fmt.Fprintf(rt.out, "Welcome, %s\n", user.Name)
	fmt.Fprintf(rt.out, "Appointments for %s:\n\n", day.Format("Monday, January 2 2006"))

	if len(appointments) == 0 {
		fmt.Fprintln(rt.out, "No appointments for this day.")
		return nil
	}

	w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCLIENT\tEMAIL")
	fmt.Fprintln(w, "────\t──────\t─────")

	for _, a := range appointments {
		name, email := "-", "-"
		if a.User != nil {
			name, email = a.User.Name, a.User.Email
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Date.Local().Format("15:04"), name, email)
	}

	w.Flush()

	return nil
}
