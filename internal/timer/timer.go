// Package timer owns the single-active-timer invariant: at most one open
// interval per user, across all tasks. Every mutation runs inside one
// transaction together with the daily-summary recompute it triggers, so a
// failure leaves the prior state untouched.
package timer

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/davembu/worklog/internal/metrics"
	"github.com/davembu/worklog/internal/store"
	"github.com/davembu/worklog/internal/summary"
)

var (
	// ErrTaskNotFound means the task does not exist or is not owned by the
	// calling user.
	ErrTaskNotFound = errors.New("task not found")
	// ErrIntervalNotFound means the interval does not exist or is not owned
	// by the calling user.
	ErrIntervalNotFound = errors.New("interval not found")
	// ErrAlreadyStopped means stop was called on a closed interval.
	ErrAlreadyStopped = errors.New("interval already stopped")
)

// maxTxRetries bounds retries after SQLITE_BUSY. Contention only occurs
// between two operations for the same user.
const maxTxRetries = 3

type Service struct {
	store  *store.Store
	agg    *summary.Aggregator
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(s *store.Store, agg *summary.Aggregator, logger zerolog.Logger) *Service {
	return &Service{
		store:  s,
		agg:    agg,
		logger: logger.With().Str("component", "timer").Logger(),
		now:    time.Now,
	}
}

// Start begins tracking taskID for userID. Any interval already open for the
// user is closed first, in the same transaction, with its hours attributed
// to the day the old interval started on. Returns the new open interval.
func (s *Service) Start(userID, taskID int64) (*store.TimeInterval, error) {
	var newID int64
	err := s.withRetry(func() error {
		return s.store.WithTx(func(q store.Queryer) error {
			owned, err := store.TaskOwnedBy(q, taskID, userID)
			if err != nil {
				return err
			}
			if !owned {
				return ErrTaskNotFound
			}

			now := s.now().UTC()

			open, err := store.OpenInterval(q, userID)
			if err != nil {
				return err
			}
			if open != nil {
				if err := s.closeAndAggregate(q, open, now); err != nil {
					return err
				}
				metrics.TimerImplicitStops.Inc()
				s.logger.Info().
					Int64("user_id", userID).
					Int64("interval_id", open.ID).
					Msg("open interval closed implicitly by new start")
			}

			newID, err = store.InsertInterval(q, userID, taskID, now)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.TimerStarts.Inc()
	return s.store.GetInterval(newID)
}

// Stop closes the user's interval and re-aggregates its start day.
func (s *Service) Stop(userID, intervalID int64) (*store.TimeInterval, error) {
	err := s.withRetry(func() error {
		return s.store.WithTx(func(q store.Queryer) error {
			iv, err := store.GetIntervalOwned(q, intervalID, userID)
			if errors.Is(err, store.ErrNotFound) {
				return ErrIntervalNotFound
			}
			if err != nil {
				return err
			}
			if iv.EndTime != nil {
				return ErrAlreadyStopped
			}
			return s.closeAndAggregate(q, iv, s.now().UTC())
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.TimerStops.Inc()
	return s.store.GetInterval(intervalID)
}

// Active returns the user's open interval, or nil when idle. Pure read.
func (s *Service) Active(userID int64) (*store.TimeInterval, error) {
	return s.store.OpenIntervalFor(userID)
}

// closeAndAggregate closes iv at end and recomputes the summary for the day
// iv started on. The interval's own start date is the attribution day; "now"
// may already be on the other side of midnight.
func (s *Service) closeAndAggregate(q store.Queryer, iv *store.TimeInterval, end time.Time) error {
	duration := int64(end.Sub(iv.StartTime).Seconds())
	flagged := false
	if duration < 0 {
		// Clock went backwards. Never record negative hours: clamp and
		// flag the interval for manual review.
		duration = 0
		flagged = true
		metrics.ClockAnomalies.Inc()
		s.logger.Warn().
			Int64("interval_id", iv.ID).
			Time("start", iv.StartTime).
			Time("end", end).
			Msg("clock anomaly: clamped negative duration to zero")
	}

	if err := store.CloseInterval(q, iv.ID, end, duration, flagged); err != nil {
		return err
	}
	return s.agg.RecomputeTx(q, iv.UserID, store.DayOf(iv.StartTime))
}

// withRetry re-runs fn a bounded number of times when the store reports lock
// contention. Domain errors pass through untouched.
func (s *Service) withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = fn()
		if err == nil || !store.IsBusy(err) {
			return err
		}
		metrics.TimerRetries.Inc()
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return err
}
