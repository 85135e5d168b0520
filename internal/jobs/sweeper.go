package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"venivici/internal/bookings/service"
	"venivici/pkg/config"
	"venivici/pkg/logger"
	"venivici/pkg/model"
)

// runTimeout bounds one sweep so a stuck provider call cannot pile runs up.
const runTimeout = 5 * time.Minute

type PendingPayments interface {
	FindAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]*model.Booking, error)
	MarkPaymentChecked(ctx context.Context, id string, at time.Time) error
}

type Reconciler interface {
	ReconcileReference(ctx context.Context, reference string, trigger service.Trigger) (*service.Reconciliation, error)
}

// SweepSummary counts what one run did, keyed by reconciliation outcome.
type SweepSummary struct {
	Checked  int
	Outcomes map[service.Outcome]int
	Errors   int
}

// PaymentSweeper reconciles payNow bookings whose webhook never arrived and whose customer
// never came back to verify.
type PaymentSweeper struct {
	pending    PendingPayments
	reconciler Reconciler
	cfg        config.SweepConfig
	log        *logger.Logger
	now        func() time.Time
	cron       *cron.Cron
}

func NewPaymentSweeper(pending PendingPayments, reconciler Reconciler, cfg config.SweepConfig, log *logger.Logger) *PaymentSweeper {
	return &PaymentSweeper{
		pending:    pending,
		reconciler: reconciler,
		cfg:        cfg,
		log:        log.With("job", "payment_sweeper"),
		now:        time.Now,
	}
}

// Start schedules the sweep. Overlapping runs are skipped.
func (s *PaymentSweeper) Start() error {
	cl := cronLogger{log: s.log}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			s.log.Error("Payment sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.Schedule, err)
	}

	s.cron.Start()
	s.log.Info("Payment sweeper scheduled",
		"schedule", s.cfg.Schedule,
		"min_age", s.cfg.MinAge,
		"batch_size", s.cfg.BatchSize,
	)
	return nil
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *PaymentSweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
		s.log.Info("Payment sweeper stopped")
	case <-ctx.Done():
		s.log.Warn("Payment sweeper did not stop in time", "error", ctx.Err())
	}
}

// Run performs one sweep. A failure on one booking is logged and the batch continues.
// Bookings left Pending are marked checked so the next run starts with the ones not yet seen.
func (s *PaymentSweeper) Run(ctx context.Context) (*SweepSummary, error) {
	cutoff := s.now().UTC().Add(-s.cfg.MinAge)

	bookings, err := s.pending.FindAwaitingPayment(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings awaiting payment: %w", err)
	}

	summary := &SweepSummary{Outcomes: make(map[service.Outcome]int)}
	for _, booking := range bookings {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Checked++

		result, err := s.reconciler.ReconcileReference(ctx, booking.ProviderReference, service.TriggerSweep)
		if err != nil {
			summary.Errors++
			s.log.Warn("Sweep could not reconcile booking",
				"booking_id", booking.ID,
				"reference", booking.ProviderReference,
				"error", err,
			)
			s.markChecked(ctx, booking)
			continue
		}
		summary.Outcomes[result.Outcome]++
		if result.Outcome == service.OutcomeNotCompleted {
			s.markChecked(ctx, booking)
		}
	}

	if summary.Checked > 0 {
		s.log.Info("Payment sweep finished",
			"checked", summary.Checked,
			"paid", summary.Outcomes[service.OutcomePaid],
			"failed", summary.Outcomes[service.OutcomeFailed],
			"mismatch", summary.Outcomes[service.OutcomeAmountMismatch],
			"still_pending", summary.Outcomes[service.OutcomeNotCompleted],
			"errors", summary.Errors,
		)
	}
	return summary, nil
}

func (s *PaymentSweeper) markChecked(ctx context.Context, booking *model.Booking) {
	if err := s.pending.MarkPaymentChecked(ctx, booking.ID, s.now().UTC()); err != nil {
		s.log.Warn("Failed to mark booking payment checked",
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

// cronLogger routes cron's own messages into the structured logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
