package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentAbsent    AppointmentStatus = "absent"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCompleted,
		AppointmentCancelled, AppointmentAbsent:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition is allowed.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentCompleted, AppointmentCancelled, AppointmentAbsent:
		return true
	}
	return false
}

// CountsForConflict reports whether an appointment in this status still
// occupies its interval. Cancelled and completed appointments do not;
// everything else does, absent included.
func (s AppointmentStatus) CountsForConflict() bool {
	return s != AppointmentCancelled && s != AppointmentCompleted
}

// CanBecome reports whether the lifecycle permits moving from s to next.
// Confirming an already-confirmed appointment is rejected as a no-op.
func (s AppointmentStatus) CanBecome(next AppointmentStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case AppointmentConfirmed:
		return s == AppointmentPending
	case AppointmentCompleted, AppointmentCancelled, AppointmentAbsent:
		return s == AppointmentPending || s == AppointmentConfirmed
	}
	return false
}

// Appointment is the booked unit. It is created only after the
// availability resolver approves the slot, and is never deleted by the
// lifecycle: cancellation and completion are terminal status changes.
type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID                 uuid.UUID         `bun:"id,pk,type:uuid" json:"id"`
	ProfessionalID     uuid.UUID         `bun:"professional_id,notnull,type:uuid" json:"professional_id"`
	PatientID          uuid.UUID         `bun:"patient_id,notnull,type:uuid" json:"patient_id"`
	StartTime          time.Time         `bun:"start_time,notnull" json:"start_time"`
	EndTime            time.Time         `bun:"end_time,notnull" json:"end_time"`
	Status             AppointmentStatus `bun:"status,notnull" json:"status"`
	IsExtraSlot        bool              `bun:"is_extra_slot,notnull" json:"is_extra_slot"`
	Reason             string            `bun:"reason" json:"reason"`
	CancelledBy        string            `bun:"cancelled_by" json:"cancelled_by,omitempty"`
	CancellationReason string            `bun:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time         `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt          time.Time         `bun:"updated_at,notnull" json:"updated_at"`
}

// ConflictsWith reports whether the appointment still occupies its
// interval and that interval intersects [start, end).
func (a *Appointment) ConflictsWith(start, end time.Time) bool {
	return a.Status.CountsForConflict() && Overlaps(a.StartTime, a.EndTime, start, end)
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
