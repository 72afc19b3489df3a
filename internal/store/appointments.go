package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"turnos/backend/internal/domain"
)

// AppointmentStore persists appointments and answers overlap queries.
//
// Create and UpdateTimes run under a per-professional advisory lock and
// the appointments_no_overlap exclusion constraint; a collision that slips
// past the optimistic resolver check surfaces as ErrConflict, the same
// category as an early-detected one.
type AppointmentStore interface {
	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) (domain.Appointment, error)
	UpdateStatus(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)

	// HasConflict reports whether any appointment for the professional
	// with a status that still occupies its interval overlaps [start, end).
	// excludeID lets a reschedule skip the appointment being moved;
	// uuid.Nil excludes nothing.
	HasConflict(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error)

	// HasPatientConflict reports whether the same patient already holds an
	// overlapping, still-occupying appointment with the same professional.
	// Only consulted when the patient-overlap booking policy is enabled.
	HasPatientConflict(ctx context.Context, professionalID, patientID uuid.UUID, start, end time.Time) (bool, error)
}
