// Package appointments enforces the appointment lifecycle: booking after
// the availability resolver approves a slot, rescheduling under the same
// checks, and the pending/confirmed/completed/cancelled/absent machine.
package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"turnos/backend/internal/domain"
	"turnos/backend/internal/service/availability"
	"turnos/backend/internal/store"
)

// Resolver is the availability check consulted before any write that
// gives an appointment a time interval.
type Resolver interface {
	CanBook(ctx context.Context, professionalID, patientID uuid.UUID, start, end time.Time, excludeAppointmentID uuid.UUID) (availability.Decision, error)
}

type Service struct {
	repo     store.AppointmentStore
	resolver Resolver
}

func NewService(repo store.AppointmentStore, resolver Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

type BookInput struct {
	ProfessionalID uuid.UUID
	PatientID      uuid.UUID
	StartTime      time.Time
	EndTime        time.Time
	Reason         string
	IsExtraSlot    bool
}

// Book creates a pending appointment once the resolver approves the slot.
// A conflict detected at insert time, after the optimistic check passed,
// surfaces as the same SLOT_TAKEN rejection as an early-detected one.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	if in.ProfessionalID == uuid.Nil {
		return domain.Appointment{}, validationError("professional_id is required")
	}
	if in.PatientID == uuid.Nil {
		return domain.Appointment{}, validationError("patient_id is required")
	}

	start, end, err := normalizeInterval(in.StartTime, in.EndTime)
	if err != nil {
		return domain.Appointment{}, err
	}

	d, err := s.resolver.CanBook(ctx, in.ProfessionalID, in.PatientID, start, end, uuid.Nil)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !d.OK {
		return domain.Appointment{}, rejectionFromReason(d.Reason)
	}

	appt, err := s.repo.Create(ctx, domain.Appointment{
		ProfessionalID: in.ProfessionalID,
		PatientID:      in.PatientID,
		StartTime:      start,
		EndTime:        end,
		Status:         domain.AppointmentPending,
		IsExtraSlot:    in.IsExtraSlot,
		Reason:         strings.TrimSpace(in.Reason),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Appointment{}, slotTakenError()
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

// Reschedule moves a non-terminal appointment to a new interval after
// re-running the availability checks with the appointment excluded from
// conflict detection. On rejection the appointment is left unchanged.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, startTime, endTime time.Time) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	start, end, err := normalizeInterval(startTime, endTime)
	if err != nil {
		return domain.Appointment{}, err
	}

	appt, err := s.get(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if appt.Status.Terminal() {
		return domain.Appointment{}, transitionError("reschedule", appt.Status)
	}

	d, err := s.resolver.CanBook(ctx, appt.ProfessionalID, appt.PatientID, start, end, appt.ID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !d.OK {
		return domain.Appointment{}, rejectionFromReason(d.Reason)
	}

	moved, err := s.repo.UpdateTimes(ctx, appt.ID, start, end)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Appointment{}, slotTakenError()
		}
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, notFoundError("appointment")
		}
		return domain.Appointment{}, err
	}
	return moved, nil
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentConfirmed, "confirm")
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentCompleted, "complete")
}

func (s *Service) MarkAbsent(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentAbsent, "mark absent")
}

// Cancel moves a non-terminal appointment to cancelled, recording who
// cancelled and why. The row is never deleted.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, cancelledBy, reason string) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	cancelledBy = strings.TrimSpace(cancelledBy)
	if cancelledBy == "" {
		return domain.Appointment{}, validationError("cancelled_by is required")
	}

	appt, err := s.get(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !appt.Status.CanBecome(domain.AppointmentCancelled) {
		return domain.Appointment{}, transitionError("cancel", appt.Status)
	}

	appt.Status = domain.AppointmentCancelled
	appt.CancelledBy = cancelledBy
	appt.CancellationReason = strings.TrimSpace(reason)
	return s.updateStatus(ctx, appt)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	return s.get(ctx, id)
}

func (s *Service) ListByProfessional(ctx context.Context, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	if professionalID == uuid.Nil {
		return nil, validationError("professional_id is required")
	}
	start, end, err := normalizeWindow(windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByProfessional(ctx, professionalID, start, end)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, next domain.AppointmentStatus, verb string) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	appt, err := s.get(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !appt.Status.CanBecome(next) {
		return domain.Appointment{}, transitionError(verb, appt.Status)
	}

	appt.Status = next
	return s.updateStatus(ctx, appt)
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, notFoundError("appointment")
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (s *Service) updateStatus(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	out, err := s.repo.UpdateStatus(ctx, appt)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, notFoundError("appointment")
		}
		return domain.Appointment{}, err
	}
	return out, nil
}

// maxListWindow caps listing query windows, matching the agenda
// expansion cap. It does not apply to a single appointment's duration.
const maxListWindow = 90 * 24 * time.Hour

func normalizeWindow(from, to time.Time) (time.Time, time.Time, error) {
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, validationError("window start and end are required")
	}
	f := from.UTC()
	t := to.UTC()
	if !t.After(f) {
		return time.Time{}, time.Time{}, validationError("window end must be after window start")
	}
	if t.Sub(f) > maxListWindow {
		return time.Time{}, time.Time{}, validationError("window too long")
	}
	return f, t, nil
}

func normalizeInterval(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, validationError("start_time and end_time are required")
	}
	s := start.UTC()
	e := end.UTC()
	if e.Equal(s) || e.Before(s) {
		return time.Time{}, time.Time{}, validationError("end_time must be after start_time")
	}
	if e.Sub(s) > 24*time.Hour {
		return time.Time{}, time.Time{}, validationError("duration too long")
	}
	return s, e, nil
}
