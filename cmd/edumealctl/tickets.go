package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/domain/student"
	"github.com/edumeal/edumeal-api/internal/domain/ticket"
	"github.com/edumeal/edumeal-api/internal/pkg/clock"
	"github.com/edumeal/edumeal-api/internal/pkg/database"
)

const dailyPollInterval = time.Minute

func newGenerateTicketsCommand() *cobra.Command {
	var (
		date  string
		daily bool
	)

	cmd := &cobra.Command{
		Use:   "generate-tickets",
		Short: "Issue lunch tickets for eligible students",
		Long: `Issue one lunch ticket per eligible student for a date (default today).
With --daily the command keeps running and issues tickets each time the
business date rolls over.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer database.ClosePostgres(db)

			clk := clock.New(cfg.Location())
			svc := ticket.NewService(
				ticket.NewRepository(db),
				student.NewRepository(db),
				activity.NewService(activity.NewRepository(db), nil),
				ticket.NewSigner(cfg.TicketHashKey),
				clk,
			)

			if daily {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return runDaily(ctx, svc, clk, dailyPollInterval)
			}

			target := clock.Today(clk)
			if date != "" {
				if target, err = clock.ParseDate(date); err != nil {
					return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", date)
				}
			}

			count, err := svc.GenerateForDate(cmd.Context(), target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d tickets for %s\n", count, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Service date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&daily, "daily", false, "Keep running and generate on each new business day")

	return cmd
}

type ticketGenerator interface {
	GenerateForDate(ctx context.Context, date clock.Date) (int, error)
}

// runDaily generates tickets for today and again whenever the date changes.
// Failed runs are retried on the next tick.
func runDaily(ctx context.Context, gen ticketGenerator, clk clock.Clock, interval time.Duration) error {
	log.Info().Dur("interval", interval).Msg("Starting daily ticket generation")

	var done clock.Date
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		today := clock.Today(clk)
		if !today.Equal(done) {
			count, err := gen.GenerateForDate(ctx, today)
			if err != nil {
				log.Error().Err(err).Str("date", today.String()).Msg("Ticket generation failed")
			} else {
				done = today
				log.Info().Int("count", count).Str("date", today.String()).Msg("Tickets generated")
			}
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Daily ticket generation stopped")
			return nil
		case <-ticker.C:
		}
	}
}
