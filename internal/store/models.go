package store

import "time"

// DayFormat is the calendar-day key used throughout: whole-day, UTC.
const DayFormat = "2006-01-02"

// DayOf returns the calendar day a timestamp belongs to. Hours are always
// attributed to the UTC date of the interval's start.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// Classification is the hour-type bucket a day's total is attributed to.
type Classification string

const (
	ClassWork         Classification = "WORK"
	ClassWorkFromHome Classification = "WORK_FROM_HOME"
	ClassVacation     Classification = "VACATION"
	ClassSickLeave    Classification = "SICK_LEAVE"
	ClassOther        Classification = "OTHER"
)

// AbsenceType is the kind of absence a user requests.
type AbsenceType string

const (
	AbsenceVacation     AbsenceType = "VACATION"
	AbsenceSickLeave    AbsenceType = "SICK_LEAVE"
	AbsenceWorkFromHome AbsenceType = "WORK_FROM_HOME"
	AbsenceRemoteWork   AbsenceType = "REMOTE_WORK"
	AbsenceOther        AbsenceType = "OTHER"
)

// AbsenceStatus is the lifecycle state of an absence request. The approval
// decision itself is made elsewhere; the store only records it.
type AbsenceStatus string

const (
	StatusPending   AbsenceStatus = "PENDING"
	StatusApproved  AbsenceStatus = "APPROVED"
	StatusRejected  AbsenceStatus = "REJECTED"
	StatusCancelled AbsenceStatus = "CANCELLED"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Task struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TimeInterval is one contiguous span of tracked work on a task.
// EndTime == nil means the timer is running; Duration is set exactly when
// EndTime is set. Flagged marks an interval whose duration was clamped to
// zero because the closing clock read before the start (needs review).
type TimeInterval struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	TaskID    int64      `json:"task_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Duration  *int64     `json:"duration"` // seconds
	Flagged   bool       `json:"flagged"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ManualEntry is a user-entered daily hour record not tied to a tracked
// interval.
type ManualEntry struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	TaskID         *int64         `json:"task_id"`
	Day            string         `json:"day"`
	Hours          float64        `json:"hours"`
	Classification Classification `json:"classification"`
	Note           string         `json:"note"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// AbsenceRequest covers an inclusive range of whole days. Only APPROVED
// requests with AffectsHours participate in classification resolution.
type AbsenceRequest struct {
	ID           int64         `json:"id"`
	UserID       int64         `json:"user_id"`
	Type         AbsenceType   `json:"type"`
	Status       AbsenceStatus `json:"status"`
	StartDay     string        `json:"start_day"`
	EndDay       string        `json:"end_day"`
	AffectsHours bool          `json:"affects_hours"`
	Reason       string        `json:"reason"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// DailySummary is the derived per-user/per-day aggregate. It is never a
// source of truth: every write replaces the whole row from the interval and
// manual-entry tables.
type DailySummary struct {
	UserID        int64   `json:"user_id"`
	Day           string  `json:"day"`
	WorkHours     float64 `json:"work_hours"`
	WFHHours      float64 `json:"wfh_hours"`
	VacationHours float64 `json:"vacation_hours"`
	SickHours     float64 `json:"sick_hours"`
	OtherHours    float64 `json:"other_hours"`
}

// Total returns the sum of all classification buckets.
func (d DailySummary) Total() float64 {
	return d.WorkHours + d.WFHHours + d.VacationHours + d.SickHours + d.OtherHours
}

// SetBucket attributes hours to the bucket for the given classification.
func (d *DailySummary) SetBucket(c Classification, hours float64) {
	switch c {
	case ClassWorkFromHome:
		d.WFHHours = hours
	case ClassVacation:
		d.VacationHours = hours
	case ClassSickLeave:
		d.SickHours = hours
	case ClassOther:
		d.OtherHours = hours
	default:
		d.WorkHours = hours
	}
}

// IntervalFilter is used to filter time intervals in queries.
type IntervalFilter struct {
	UserID   *int64
	TaskID   *int64
	From     *time.Time
	To       *time.Time
	OpenOnly bool
	Limit    int
}
