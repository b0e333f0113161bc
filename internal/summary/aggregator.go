// Package summary maintains the daily_summaries projection. Rows are derived
// data: every recompute rebuilds the full (user, day) row from the interval
// and manual-entry tables, so calling it twice, or out of order, is safe.
package summary

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/davembu/worklog/internal/absence"
	"github.com/davembu/worklog/internal/metrics"
	"github.com/davembu/worklog/internal/store"
)

// Aggregator is the sole writer of the daily_summaries table. Collaborators
// that change manual entries or absence statuses call Recompute rather than
// touching the table themselves.
type Aggregator struct {
	store    *store.Store
	resolver *absence.Resolver
	logger   zerolog.Logger
}

func NewAggregator(s *store.Store, r *absence.Resolver, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		store:    s,
		resolver: r,
		logger:   logger.With().Str("component", "summary").Logger(),
	}
}

// Recompute rebuilds the summary row for (userID, day) in its own
// transaction.
func (a *Aggregator) Recompute(userID int64, day string) error {
	return a.store.WithTx(func(q store.Queryer) error {
		return a.RecomputeTx(q, userID, day)
	})
}

// RecomputeTx rebuilds the summary row inside the caller's transaction, so
// a timer stop and its re-aggregation commit or roll back together.
func (a *Aggregator) RecomputeTx(q store.Queryer, userID int64, day string) error {
	start := time.Now()

	trackedSecs, err := store.SumClosedSeconds(q, userID, day)
	if err != nil {
		return err
	}

	manual, err := store.SumManualHours(q, userID, day)
	if err != nil {
		return err
	}
	var manualHours float64
	for _, h := range manual {
		manualHours += h
	}

	cls, err := a.resolver.Resolve(q, userID, day)
	if err != nil {
		return err
	}

	// The whole day's total lands in one bucket. A day cannot be half WORK
	// and half VACATION in this model.
	row := store.DailySummary{UserID: userID, Day: day}
	row.SetBucket(cls, float64(trackedSecs)/3600+manualHours)

	if err := store.ReplaceDailySummary(q, row); err != nil {
		return err
	}

	metrics.SummaryRecomputes.Inc()
	metrics.SummaryRecomputeDuration.Observe(time.Since(start).Seconds())

	a.logger.Debug().
		Int64("user_id", userID).
		Str("day", day).
		Str("classification", string(cls)).
		Float64("hours", row.Total()).
		Msg("daily summary recomputed")
	return nil
}

// RecomputeRange recomputes every day in [fromDay, toDay] inclusive. Used
// after an absence request is approved or cancelled retroactively.
func (a *Aggregator) RecomputeRange(userID int64, fromDay, toDay string) error {
	from, err := time.Parse(store.DayFormat, fromDay)
	if err != nil {
		return fmt.Errorf("bad from day %q: %w", fromDay, err)
	}
	to, err := time.Parse(store.DayFormat, toDay)
	if err != nil {
		return fmt.Errorf("bad to day %q: %w", toDay, err)
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := a.Recompute(userID, d.Format(store.DayFormat)); err != nil {
			return err
		}
	}
	return nil
}
