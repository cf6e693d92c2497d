package commands

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Leganyst/appointment-queue/internal/booking"
	"github.com/Leganyst/appointment-queue/internal/calendar"
	"github.com/Leganyst/appointment-queue/internal/pricing"
	"github.com/Leganyst/appointment-queue/internal/queue"
)

func queueCmd() *cobra.Command {
	var (
		providerID string
		date       string
	)

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect a provider's queue for a day",
	}
	cmd.PersistentFlags().StringVar(&providerID, "provider", "", "provider id")
	cmd.PersistentFlags().StringVar(&date, "date", "", "day in YYYY-MM-DD (default today)")
	_ = cmd.MarkPersistentFlagRequired("provider")

	partition := func() (uuid.UUID, string, error) {
		id, err := uuid.Parse(providerID)
		if err != nil {
			return uuid.Nil, "", fmt.Errorf("invalid --provider: %w", err)
		}
		day := date
		if day == "" {
			day = calendar.Today(time.Now(), cfg.Queue.Location)
		}
		if _, err := calendar.ParseDay(day, cfg.Queue.Location); err != nil {
			return uuid.Nil, "", fmt.Errorf("invalid --date: %w", err)
		}
		return id, day, nil
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, day, err := partition()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.controller.Queue(cmd.Context(), id, day)
			if err != nil {
				return err
			}
			return printQueue(cmd.OutOrStdout(), view)
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print the queue each time it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, day, err := partition()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.controller.Watch(ctx, id, day, func(v *booking.QueueView) error {
				fmt.Fprintf(cmd.OutOrStdout(), "--- revision %d\n", v.Revision)
				return printQueue(cmd.OutOrStdout(), v)
			})
		},
	}

	cmd.AddCommand(show, watch)
	return cmd
}

func printQueue(out io.Writer, v *booking.QueueView) error {
	fmt.Fprintf(out, "provider %s, %s: %d/%d booked\n", v.ProviderID, v.Date, v.Capacity.Current, v.Capacity.Max)
	if v.Current != nil {
		fmt.Fprintf(out, "now serving: %s (customer %s)\n", v.Current.ID, v.Current.CustomerID)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNUMBER\tAPPOINTMENT\tURGENT\tPRICE\tWAIT")
	for _, e := range v.Entries {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%t\t%s\t%s\n",
			e.Rank,
			e.Appointment.Position(),
			e.Appointment.ID,
			e.Appointment.IsUrgent,
			pricing.Money(e.Appointment.TotalPrice),
			queue.FormatWait(e.EstimatedWait),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(v.Pending) > 0 {
		fmt.Fprintf(out, "%d pending request(s)\n", len(v.Pending))
	}
	return nil
}
