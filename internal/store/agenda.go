package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"turnos/backend/internal/domain"
)

// ScheduleRuleStore holds recurring weekly availability rules. Rules are
// superseded, never rewritten: Deactivate flips active off and leaves the
// row in place so past schedule configurations stay queryable.
type ScheduleRuleStore interface {
	Create(ctx context.Context, rule domain.ScheduleRule) (domain.ScheduleRule, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ScheduleRule, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]domain.ScheduleRule, error)
	Deactivate(ctx context.Context, professionalID, id uuid.UUID) error

	// CoversInstant reports whether any active, in-force rule for the
	// professional covers the UTC instant.
	CoversInstant(ctx context.Context, professionalID uuid.UUID, instant time.Time) (bool, error)
}

// DateExceptionStore holds one-off calendar-date overrides.
type DateExceptionStore interface {
	Create(ctx context.Context, ex domain.DateException) (domain.DateException, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.DateException, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.DateException, error)
	Delete(ctx context.Context, professionalID, id uuid.UUID) error

	CoversInstant(ctx context.Context, professionalID uuid.UUID, instant time.Time) (bool, error)
}

// UnavailabilityBlockStore holds explicitly excluded time ranges.
type UnavailabilityBlockStore interface {
	Create(ctx context.Context, block domain.UnavailabilityBlock) (domain.UnavailabilityBlock, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.UnavailabilityBlock, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.UnavailabilityBlock, error)
	Update(ctx context.Context, block domain.UnavailabilityBlock) (domain.UnavailabilityBlock, error)
	Delete(ctx context.Context, professionalID, id uuid.UUID) error

	// Overlaps reports whether any block for the professional intersects
	// [start, end). excludeID skips one block, for in-place updates;
	// uuid.Nil excludes nothing.
	Overlaps(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error)
}
