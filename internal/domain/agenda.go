package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Weekday is a day of the week as stored in schedule rules. The range is
// closed: Sunday(0) through Saturday(6), plus NoFixedDay(7) for
// professionals whose agenda is driven entirely by date exceptions.
// NoFixedDay never matches a calendar date.
type Weekday int8

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	NoFixedDay
)

func (d Weekday) Valid() bool {
	return d >= Sunday && d <= NoFixedDay
}

func (d Weekday) String() string {
	switch d {
	case Sunday:
		return "sunday"
	case Monday:
		return "monday"
	case Tuesday:
		return "tuesday"
	case Wednesday:
		return "wednesday"
	case Thursday:
		return "thursday"
	case Friday:
		return "friday"
	case Saturday:
		return "saturday"
	case NoFixedDay:
		return "no_fixed_day"
	default:
		return "invalid"
	}
}

// WeekdayOfUTC derives the weekday from the UTC calendar date of t. The
// result is always in Sunday..Saturday and therefore never NoFixedDay.
func WeekdayOfUTC(t time.Time) Weekday {
	return Weekday(t.UTC().Weekday())
}

// MinuteOfUTC returns the minute of the UTC day of t, in [0, 1440).
func MinuteOfUTC(t time.Time) int {
	u := t.UTC()
	return u.Hour()*60 + u.Minute()
}

// DateOfUTC truncates t to midnight of its UTC calendar date.
func DateOfUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect: aStart < bEnd AND bStart < aEnd.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ScheduleRule is one recurring weekly working-hours row for a
// professional. Rules are never rewritten in place: staff supersede a rule
// by deactivating it and creating a new one with a fresh validity window,
// so past schedule configurations stay queryable for old appointments.
type ScheduleRule struct {
	bun.BaseModel `bun:"table:schedule_rules"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	ProfessionalID uuid.UUID  `bun:"professional_id,notnull,type:uuid" json:"professional_id"`
	Weekday        Weekday    `bun:"weekday,notnull" json:"weekday"`
	StartMinute    int        `bun:"start_minute,notnull" json:"start_minute"`
	EndMinute      int        `bun:"end_minute,notnull" json:"end_minute"`
	SlotMinutes    int        `bun:"slot_minutes,notnull" json:"slot_minutes"`
	Active         bool       `bun:"active,notnull" json:"active"`
	ValidFrom      time.Time  `bun:"valid_from,notnull,type:date" json:"valid_from"`
	ValidUntil     *time.Time `bun:"valid_until,type:date" json:"valid_until,omitempty"`
	CreatedAt      time.Time  `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull" json:"updated_at"`
}

// InForceOn reports whether the rule's validity window contains the given
// UTC calendar date and the rule is active.
func (r *ScheduleRule) InForceOn(date time.Time) bool {
	if !r.Active {
		return false
	}
	d := DateOfUTC(date)
	if d.Before(DateOfUTC(r.ValidFrom)) {
		return false
	}
	if r.ValidUntil != nil && d.After(DateOfUTC(*r.ValidUntil)) {
		return false
	}
	return true
}

// CoversInstant reports whether the rule covers the UTC instant t: in
// force on t's date, weekday matches, and the minute of day falls in
// [StartMinute, EndMinute). A NoFixedDay rule covers nothing.
func (r *ScheduleRule) CoversInstant(t time.Time) bool {
	if r.Weekday == NoFixedDay {
		return false
	}
	if WeekdayOfUTC(t) != r.Weekday {
		return false
	}
	if !r.InForceOn(t) {
		return false
	}
	m := MinuteOfUTC(t)
	return m >= r.StartMinute && m < r.EndMinute
}

func (r *ScheduleRule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

// DateException is working hours for one specific calendar date,
// independent of the weekly pattern. It has no validity window; it applies
// only to its date. Several exceptions may share a date (split shifts).
type DateException struct {
	bun.BaseModel `bun:"table:date_exceptions"`

	ID             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ProfessionalID uuid.UUID `bun:"professional_id,notnull,type:uuid" json:"professional_id"`
	Date           time.Time `bun:"date,notnull,type:date" json:"date"`
	StartMinute    int       `bun:"start_minute,notnull" json:"start_minute"`
	EndMinute      int       `bun:"end_minute,notnull" json:"end_minute"`
	SlotMinutes    int       `bun:"slot_minutes,notnull" json:"slot_minutes"`
	Notes          string    `bun:"notes" json:"notes"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// CoversInstant reports whether the exception's date equals t's UTC
// calendar date and t's minute of day falls in [StartMinute, EndMinute).
func (e *DateException) CoversInstant(t time.Time) bool {
	if !DateOfUTC(e.Date).Equal(DateOfUTC(t)) {
		return false
	}
	m := MinuteOfUTC(t)
	return m >= e.StartMinute && m < e.EndMinute
}

func (e *DateException) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if e.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			e.ID = id
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		e.UpdatedAt = now
	}
	return nil
}

// UnavailabilityBlock is a closed interval that is never bookable,
// regardless of rule or exception coverage. Blocks may overlap each other.
type UnavailabilityBlock struct {
	bun.BaseModel `bun:"table:unavailability_blocks"`

	ID             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ProfessionalID uuid.UUID `bun:"professional_id,notnull,type:uuid" json:"professional_id"`
	StartTime      time.Time `bun:"start_time,notnull" json:"start_time"`
	EndTime        time.Time `bun:"end_time,notnull" json:"end_time"`
	Reason         string    `bun:"reason" json:"reason"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// Overlaps reports whether the block intersects [start, end).
func (b *UnavailabilityBlock) Overlaps(start, end time.Time) bool {
	return Overlaps(b.StartTime, b.EndTime, start, end)
}

func (b *UnavailabilityBlock) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}
