package workers

import (
	"context"
	"time"

	"github.com/benvon/smart-dashboard/internal/dashboard"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/session"
	"github.com/benvon/smart-dashboard/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SessionSource lists the live sessions to scan for due reminders.
type SessionSource interface {
	Sessions() []*session.Session
}

// ReminderDispatcher periodically delivers reminders whose fire time has passed.
type ReminderDispatcher struct {
	sessions SessionSource
	notifier Notifier
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewReminderDispatcher creates a dispatcher that scans every interval.
func NewReminderDispatcher(sessions SessionSource, notifier Notifier, interval time.Duration, logger *zap.Logger) *ReminderDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderDispatcher{
		sessions: sessions,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the dispatcher's clock. Intended for tests.
func (d *ReminderDispatcher) WithClock(now func() time.Time) *ReminderDispatcher {
	d.now = now
	return d
}

// Start runs the dispatch loop until ctx is cancelled.
func (d *ReminderDispatcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

// DispatchOnce delivers every due reminder across all live sessions and returns how many
// were delivered. A reminder whose notification fails stays undelivered and is retried on
// the next pass.
func (d *ReminderDispatcher) DispatchOnce(ctx context.Context) int {
	ctx, span := otel.Tracer(telemetry.InstrumentationName).Start(ctx, "reminders.dispatch")
	defer span.End()

	sessions := d.sessions.Sessions()
	delivered := 0
	for _, s := range sessions {
		if ctx.Err() != nil {
			break
		}
		delivered += d.dispatchSession(ctx, s)
	}
	span.SetAttributes(
		attribute.Int("dashboard.sessions", len(sessions)),
		attribute.Int("dashboard.reminders_delivered", delivered),
	)
	return delivered
}

func (d *ReminderDispatcher) dispatchSession(ctx context.Context, s *session.Session) int {
	now := d.now()
	var due []models.Reminder
	s.Peek(func(st *dashboard.State) {
		due = st.DueForDelivery(now)
	})
	if len(due) == 0 {
		return 0
	}

	delivered := 0
	for _, r := range due {
		message := dashboard.DeliveryMessage(r)
		if err := d.notifier.Notify(ctx, s.ID, r, message); err != nil {
			d.logger.Warn("reminder_notify_failed",
				zap.String("session_id", s.ID.String()),
				zap.String("reminder_id", r.ID.String()),
				zap.Error(err),
			)
			continue
		}

		err := s.Background(ctx, func(st *dashboard.State) error {
			return st.MarkDelivered(r.ID)
		})
		if err != nil {
			d.logger.Error("reminder_mark_delivered_failed",
				zap.String("session_id", s.ID.String()),
				zap.String("reminder_id", r.ID.String()),
				zap.Error(err),
			)
			continue
		}

		delivered++
		d.logger.Info("reminder_dispatched",
			zap.String("session_id", s.ID.String()),
			zap.String("reminder_id", r.ID.String()),
			zap.Duration("lateness", now.Sub(r.FireAt)),
		)
	}
	return delivered
}
