// Package availability decides whether an appointment may legally exist
// for a professional and time range, reconciling weekly schedule rules,
// date exceptions, unavailability blocks and existing appointments.
package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"turnos/backend/internal/store"
)

// Reason classifies a rejected booking attempt.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNotWorkingHours Reason = "NOT_WORKING_HOURS"
	ReasonBlockedPeriod   Reason = "BLOCKED_PERIOD"
	ReasonSlotTaken       Reason = "SLOT_TAKEN"
)

// Decision is the outcome of a CanBook query. When OK is false, Reason
// holds the first check that failed.
type Decision struct {
	OK     bool   `json:"ok"`
	Reason Reason `json:"reason,omitempty"`
}

func approve() Decision        { return Decision{OK: true} }
func reject(r Reason) Decision { return Decision{OK: false, Reason: r} }

// Policy holds booking policy toggles.
//
// PreventPatientOverlap rejects a booking when the same patient already
// holds an overlapping appointment with the same professional. The query
// predates the toggle but was never enforced by the original booking
// workflow, so it defaults to off.
type Policy struct {
	PreventPatientOverlap bool
}

// Resolver orchestrates the agenda stores to answer whether
// [professional, start, end) is bookable. It performs no writes; callers
// must still tolerate a late store.ErrConflict at insert time, since time
// passes between check and commit.
type Resolver struct {
	rules        store.ScheduleRuleStore
	exceptions   store.DateExceptionStore
	blocks       store.UnavailabilityBlockStore
	appointments store.AppointmentStore
	policy       Policy
}

func NewResolver(rules store.ScheduleRuleStore, exceptions store.DateExceptionStore, blocks store.UnavailabilityBlockStore, appointments store.AppointmentStore, policy Policy) *Resolver {
	return &Resolver{
		rules:        rules,
		exceptions:   exceptions,
		blocks:       blocks,
		appointments: appointments,
		policy:       policy,
	}
}

// CanBook runs the fixed check order: coverage of the start instant,
// then blocks over the whole interval, then appointment conflicts.
// Blocks take precedence over coverage; a blocked instant is never
// bookable. Only the start instant's coverage is checked; the interval
// is not required to fit inside a single covered window.
//
// excludeAppointmentID lets a reschedule re-check without flagging the
// appointment being moved; uuid.Nil excludes nothing. patientID is only
// consulted when the patient-overlap policy is on.
func (r *Resolver) CanBook(ctx context.Context, professionalID, patientID uuid.UUID, start, end time.Time, excludeAppointmentID uuid.UUID) (Decision, error) {
	start = start.UTC()
	end = end.UTC()

	covered, err := r.rules.CoversInstant(ctx, professionalID, start)
	if err != nil {
		return Decision{}, err
	}
	if !covered {
		covered, err = r.exceptions.CoversInstant(ctx, professionalID, start)
		if err != nil {
			return Decision{}, err
		}
	}
	if !covered {
		return reject(ReasonNotWorkingHours), nil
	}

	blocked, err := r.blocks.Overlaps(ctx, professionalID, start, end, uuid.Nil)
	if err != nil {
		return Decision{}, err
	}
	if blocked {
		return reject(ReasonBlockedPeriod), nil
	}

	conflict, err := r.appointments.HasConflict(ctx, professionalID, start, end, excludeAppointmentID)
	if err != nil {
		return Decision{}, err
	}
	if conflict {
		return reject(ReasonSlotTaken), nil
	}

	if r.policy.PreventPatientOverlap && patientID != uuid.Nil {
		taken, err := r.appointments.HasPatientConflict(ctx, professionalID, patientID, start, end)
		if err != nil {
			return Decision{}, err
		}
		if taken {
			return reject(ReasonSlotTaken), nil
		}
	}

	return approve(), nil
}
