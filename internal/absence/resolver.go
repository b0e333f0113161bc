// Package absence resolves which hour classification applies to a calendar
// day. The classification is a per-day property: one approved, hour-affecting
// absence request colors the whole day, there is no sub-day granularity.
package absence

import (
	"github.com/rs/zerolog"

	"github.com/davembu/worklog/internal/store"
)

// Resolver maps (user, day) to an hour classification via approved absence
// requests. Days not covered by any request default to WORK.
type Resolver struct {
	logger zerolog.Logger
}

func NewResolver(logger zerolog.Logger) *Resolver {
	return &Resolver{logger: logger.With().Str("component", "absence").Logger()}
}

// Resolve returns the classification for a user's day. It runs against the
// caller's Queryer so it can participate in the timer transaction.
func (r *Resolver) Resolve(q store.Queryer, userID int64, day string) (store.Classification, error) {
	req, err := store.FindApprovedHourAffecting(q, userID, day)
	if err != nil {
		return store.ClassWork, err
	}
	if req == nil {
		return store.ClassWork, nil
	}

	cls := ClassificationFor(req.Type)
	r.logger.Debug().
		Int64("user_id", userID).
		Str("day", day).
		Int64("request_id", req.ID).
		Str("classification", string(cls)).
		Msg("day classified by absence request")
	return cls, nil
}

// ClassificationFor maps an absence type to the hour bucket it produces.
func ClassificationFor(t store.AbsenceType) store.Classification {
	switch t {
	case store.AbsenceVacation:
		return store.ClassVacation
	case store.AbsenceSickLeave:
		return store.ClassSickLeave
	case store.AbsenceWorkFromHome, store.AbsenceRemoteWork:
		return store.ClassWorkFromHome
	case store.AbsenceOther:
		return store.ClassOther
	default:
		return store.ClassWork
	}
}
