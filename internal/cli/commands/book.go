package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gobarber/gobarber/internal/cli/client"
	"github.com/gobarber/gobarber/internal/cli/prompt"
	"github.com/gobarber/gobarber/internal/session"
)

const dateTimeLayout = "2006-01-02 15:04"

// NewBookCmd creates the book command
func NewBookCmd(opts ...Option) *cobra.Command {
	var providerID, date string

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment with a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				return fmt.Errorf("--date is required, e.g. --date \"2026-01-02 14:00\"")
			}
			at, err := time.ParseInLocation(dateTimeLayout, date, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --date '%s', expected \"YYYY-MM-DD HH:MM\"", date)
			}
			return runBook(cmd.Context(), providerID, at, opts...)
		},
	}

	cmd.Flags().StringVar(&providerID, "provider", "", "Provider ID (will prompt if not provided)")
	cmd.Flags().StringVar(&date, "date", "", "Appointment time as \"YYYY-MM-DD HH:MM\"")

	return cmd
}

func runBook(ctx context.Context, providerID string, at time.Time, opts ...Option) error {
	rt, err := open(ctx, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	if _, err := rt.requireSession(); err != nil {
		return err
	}

	providers, err := rt.api.ListProviders(ctx)
	if err != nil {
		return rt.apiFailure(ctx, "loading providers", err)
	}

	provider, err := pickProvider(providers, providerID)
	if err != nil {
		return err
	}

	appointment, err := rt.api.CreateAppointment(ctx, client.CreateAppointmentRequest{
		ProviderID: provider.ID,
		Date:       at,
	})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			return fmt.Errorf("booking rejected: %s", apiErr.Message)
		}
		return rt.apiFailure(ctx, "booking", err)
	}

	fmt.Fprintf(rt.out, "✓ Booked %s with %s\n", appointment.Date.Local().Format(dateTimeLayout), provider.Name)

	return nil
}

// pickProvider finds providerID in providers, or asks when it is empty
func pickProvider(providers []session.User, providerID string) (*session.User, error) {
	if providerID == "" {
		provider, err := prompt.SelectProvider(providers)
		if errors.Is(err, prompt.ErrNonInteractive) {
			return nil, fmt.Errorf("provider is required in non-interactive mode (use --provider flag)")
		}
		return provider, err
	}

	for i := range providers {
		if providers[i].ID == providerID {
			return &providers[i], nil
		}
	}
	return nil, fmt.Errorf("provider '%s' not found. Run 'gobarber book' without --provider to pick one", providerID)
}
