// Package agenda manages a professional's working-hours configuration:
// weekly schedule rules, one-off date exceptions and unavailability
// blocks. Booking decisions live in the availability package.
package agenda

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"turnos/backend/internal/domain"
	"turnos/backend/internal/store"
)

// MaxWindowSpan caps agenda window expansion requests.
const MaxWindowSpan = 90 * 24 * time.Hour

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	rules      store.ScheduleRuleStore
	exceptions store.DateExceptionStore
	blocks     store.UnavailabilityBlockStore
}

func NewService(rules store.ScheduleRuleStore, exceptions store.DateExceptionStore, blocks store.UnavailabilityBlockStore) *Service {
	return &Service{rules: rules, exceptions: exceptions, blocks: blocks}
}

type CreateRuleInput struct {
	ProfessionalID uuid.UUID
	Weekday        domain.Weekday
	StartMinute    int
	EndMinute      int
	SlotMinutes    int
	ValidFrom      time.Time
	ValidUntil     *time.Time
}

// CreateRule adds a weekly rule. History is preserved by superseding:
// staff deactivate the old rule and create a new one with a fresh
// validity window instead of editing rows in place.
func (s *Service) CreateRule(ctx context.Context, in CreateRuleInput) (domain.ScheduleRule, error) {
	if in.ProfessionalID == uuid.Nil {
		return domain.ScheduleRule{}, validationError("professional_id is required")
	}
	if !in.Weekday.Valid() {
		return domain.ScheduleRule{}, validationError("weekday must be between 0 and 7")
	}
	if err := validateDayMinutes(in.StartMinute, in.EndMinute); err != nil {
		return domain.ScheduleRule{}, err
	}
	if in.SlotMinutes <= 0 {
		return domain.ScheduleRule{}, validationError("slot_minutes must be positive")
	}
	if in.ValidFrom.IsZero() {
		return domain.ScheduleRule{}, validationError("valid_from is required")
	}

	validFrom := domain.DateOfUTC(in.ValidFrom)
	var validUntil *time.Time
	if in.ValidUntil != nil {
		u := domain.DateOfUTC(*in.ValidUntil)
		if u.Before(validFrom) {
			return domain.ScheduleRule{}, validationError("valid_until must not be before valid_from")
		}
		validUntil = &u
	}

	return s.rules.Create(ctx, domain.ScheduleRule{
		ProfessionalID: in.ProfessionalID,
		Weekday:        in.Weekday,
		StartMinute:    in.StartMinute,
		EndMinute:      in.EndMinute,
		SlotMinutes:    in.SlotMinutes,
		Active:         true,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
	})
}

func (s *Service) ListRules(ctx context.Context, professionalID uuid.UUID) ([]domain.ScheduleRule, error) {
	if professionalID == uuid.Nil {
		return nil, validationError("professional_id is required")
	}
	return s.rules.ListByProfessional(ctx, professionalID)
}

func (s *Service) DeactivateRule(ctx context.Context, professionalID, id uuid.UUID) error {
	if professionalID == uuid.Nil || id == uuid.Nil {
		return validationError("professional_id and rule_id are required")
	}
	return s.rules.Deactivate(ctx, professionalID, id)
}

type CreateExceptionInput struct {
	ProfessionalID uuid.UUID
	Date           time.Time
	StartMinute    int
	EndMinute      int
	SlotMinutes    int
	Notes          string
}

// CreateException adds working hours for one calendar date. Several
// exceptions may share a date, so split shifts are a pair of rows.
func (s *Service) CreateException(ctx context.Context, in CreateExceptionInput) (domain.DateException, error) {
	if in.ProfessionalID == uuid.Nil {
		return domain.DateException{}, validationError("professional_id is required")
	}
	if in.Date.IsZero() {
		return domain.DateException{}, validationError("date is required")
	}
	if err := validateDayMinutes(in.StartMinute, in.EndMinute); err != nil {
		return domain.DateException{}, err
	}
	if in.SlotMinutes <= 0 {
		return domain.DateException{}, validationError("slot_minutes must be positive")
	}

	return s.exceptions.Create(ctx, domain.DateException{
		ProfessionalID: in.ProfessionalID,
		Date:           domain.DateOfUTC(in.Date),
		StartMinute:    in.StartMinute,
		EndMinute:      in.EndMinute,
		SlotMinutes:    in.SlotMinutes,
		Notes:          strings.TrimSpace(in.Notes),
	})
}

func (s *Service) ListExceptions(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.DateException, error) {
	if professionalID == uuid.Nil {
		return nil, validationError("professional_id is required")
	}
	if err := validateWindow(from, to); err != nil {
		return nil, err
	}
	return s.exceptions.ListByProfessional(ctx, professionalID, from, to)
}

func (s *Service) DeleteException(ctx context.Context, professionalID, id uuid.UUID) error {
	if professionalID == uuid.Nil || id == uuid.Nil {
		return validationError("professional_id and exception_id are required")
	}
	return s.exceptions.Delete(ctx, professionalID, id)
}

type BlockInput struct {
	ProfessionalID uuid.UUID
	StartTime      time.Time
	EndTime        time.Time
	Reason         string
}

func (s *Service) CreateBlock(ctx context.Context, in BlockInput) (domain.UnavailabilityBlock, error) {
	if err := validateBlockInput(in); err != nil {
		return domain.UnavailabilityBlock{}, err
	}
	return s.blocks.Create(ctx, domain.UnavailabilityBlock{
		ProfessionalID: in.ProfessionalID,
		StartTime:      in.StartTime.UTC(),
		EndTime:        in.EndTime.UTC(),
		Reason:         strings.TrimSpace(in.Reason),
	})
}

func (s *Service) UpdateBlock(ctx context.Context, id uuid.UUID, in BlockInput) (domain.UnavailabilityBlock, error) {
	if id == uuid.Nil {
		return domain.UnavailabilityBlock{}, validationError("block_id is required")
	}
	if err := validateBlockInput(in); err != nil {
		return domain.UnavailabilityBlock{}, err
	}
	return s.blocks.Update(ctx, domain.UnavailabilityBlock{
		ID:             id,
		ProfessionalID: in.ProfessionalID,
		StartTime:      in.StartTime.UTC(),
		EndTime:        in.EndTime.UTC(),
		Reason:         strings.TrimSpace(in.Reason),
	})
}

func (s *Service) ListBlocks(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.UnavailabilityBlock, error) {
	if professionalID == uuid.Nil {
		return nil, validationError("professional_id is required")
	}
	if err := validateWindow(from, to); err != nil {
		return nil, err
	}
	return s.blocks.ListByProfessional(ctx, professionalID, from.UTC(), to.UTC())
}

func (s *Service) DeleteBlock(ctx context.Context, professionalID, id uuid.UUID) error {
	if professionalID == uuid.Nil || id == uuid.Nil {
		return validationError("professional_id and block_id are required")
	}
	return s.blocks.Delete(ctx, professionalID, id)
}

// EffectiveWindows expands the professional's configuration into concrete
// bookable windows over [from, to), with blocks already subtracted.
// Existing appointments are not considered; booking still goes through
// the availability resolver.
func (s *Service) EffectiveWindows(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.AgendaWindow, error) {
	if professionalID == uuid.Nil {
		return nil, validationError("professional_id is required")
	}
	if err := validateWindow(from, to); err != nil {
		return nil, err
	}

	rules, err := s.rules.ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.exceptions.ListByProfessional(ctx, professionalID, from, to)
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocks.ListByProfessional(ctx, professionalID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}

	return domain.EffectiveWindows(professionalID, rules, exceptions, blocks, from, to), nil
}

func validateDayMinutes(start, end int) error {
	if start < 0 || start >= 24*60 {
		return validationError("start_minute must be within the day")
	}
	if end <= start || end > 24*60 {
		return validationError("end_minute must be after start_minute and within the day")
	}
	return nil
}

func validateBlockInput(in BlockInput) error {
	if in.ProfessionalID == uuid.Nil {
		return validationError("professional_id is required")
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return validationError("start_time and end_time are required")
	}
	if !in.EndTime.After(in.StartTime) {
		return validationError("end_time must be after start_time")
	}
	return nil
}

func validateWindow(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return validationError("window start and end are required")
	}
	if !to.After(from) {
		return validationError("window end must be after window start")
	}
	if to.Sub(from) > MaxWindowSpan {
		return validationError("window too long")
	}
	return nil
}
