// Package scheduler drives the periodic background jobs: the daily
// recurring-transaction fan-out, the budget alert sweep and the monthly
// report run.
package scheduler

import (
	"context"
	"time"

	"fintra/internal/logger"
	"fintra/internal/queue"
	"fintra/internal/services"
)

// RecurrencePublisher enqueues recurring work items for worker consumption.
type RecurrencePublisher interface {
	PublishWorkItem(ctx context.Context, item queue.RecurringWorkItem) error
}

// Scheduler runs the periodic job loops.
type Scheduler struct {
	recurring services.RecurringServicer
	alerts    services.AlertServicer
	reports   services.ReportServicer
	publisher RecurrencePublisher

	alertInterval time.Duration
	tickInterval  time.Duration

	// lastReportMonth records the month whose reports went out, so day-1
	// ticks and restarts within the same month do not re-send them.
	lastReportMonth time.Time
}

// New creates a Scheduler.
func New(
	recurring services.RecurringServicer,
	alerts services.AlertServicer,
	reports services.ReportServicer,
	publisher RecurrencePublisher,
	alertInterval, tickInterval time.Duration,
) *Scheduler {
	return &Scheduler{
		recurring:     recurring,
		alerts:        alerts,
		reports:       reports,
		publisher:     publisher,
		alertInterval: alertInterval,
		tickInterval:  tickInterval,
	}
}

// Run blocks until ctx is cancelled, sweeping budget alerts on the alert
// interval and fanning out due recurring transactions on the tick interval.
// Monthly reports run with the recurring tick on the first day of the month.
// Both sweeps also run once at startup so a restarted worker catches up
// immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	log := logger.Get()

	s.runAlerts(ctx)
	s.runRecurringTick(ctx, time.Now())

	alertTicker := time.NewTicker(s.alertInterval)
	defer alertTicker.Stop()
	recurringTicker := time.NewTicker(s.tickInterval)
	defer recurringTicker.Stop()

	log.Infow("scheduler started",
		"alert_interval", s.alertInterval,
		"recurring_tick_interval", s.tickInterval)

	for {
		select {
		case <-ctx.Done():
			log.Infow("scheduler stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-alertTicker.C:
			s.runAlerts(ctx)
		case <-recurringTicker.C:
			s.runRecurringTick(ctx, time.Now())
		}
	}
}

func (s *Scheduler) runAlerts(ctx context.Context) {
	log := logger.Get()

	if err := s.alerts.CheckBudgetAlerts(ctx, time.Now()); err != nil && ctx.Err() == nil {
		log.Errorw("budget alert sweep failed", "error", err)
	}
}

// runRecurringTick publishes one work item per due recurring transaction and,
// on the first of the month, also sends the monthly reports. Reports go out
// at most once per month; a failed run is retried on the next day-1 tick.
func (s *Scheduler) runRecurringTick(ctx context.Context, now time.Time) {
	log := logger.Get()

	due, err := s.recurring.DueTransactions(now)
	if err != nil {
		log.Errorw("listing due recurring transactions failed", "error", err)
	} else {
		published := 0
		for _, t := range due {
			item := queue.RecurringWorkItem{
				TransactionID: t.ID,
				UserID:        t.UserID,
				Timestamp:     now,
			}
			if err := s.publisher.PublishWorkItem(ctx, item); err != nil {
				log.Errorw("publishing recurring work item failed",
					"transaction_id", t.ID, "error", err)
				continue
			}
			published++
		}
		log.Infow("recurring fan-out complete", "due", len(due), "published", published)
	}

	if now.Day() == 1 && !s.reportedThisMonth(now) {
		if err := s.reports.SendMonthlyReports(ctx, now); err != nil {
			if ctx.Err() == nil {
				log.Errorw("monthly report run failed", "error", err)
			}
		} else {
			s.lastReportMonth = now
		}
	}
}

func (s *Scheduler) reportedThisMonth(now time.Time) bool {
	return s.lastReportMonth.Year() == now.Year() && s.lastReportMonth.Month() == now.Month()
}
