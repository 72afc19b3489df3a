package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"turnos/backend/internal/domain"
)

type fakeRules struct {
	coversInstantFn func(ctx context.Context, professionalID uuid.UUID, instant time.Time) (bool, error)
}

func (f *fakeRules) Create(ctx context.Context, rule domain.ScheduleRule) (domain.ScheduleRule, error) {
	panic("Create not configured")
}

func (f *fakeRules) GetByID(ctx context.Context, id uuid.UUID) (domain.ScheduleRule, error) {
	panic("GetByID not configured")
}

func (f *fakeRules) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]domain.ScheduleRule, error) {
	panic("ListByProfessional not configured")
}

func (f *fakeRules) Deactivate(ctx context.Context, professionalID, id uuid.UUID) error {
	panic("Deactivate not configured")
}

func (f *fakeRules) CoversInstant(ctx context.Context, professionalID uuid.UUID, instant time.Time) (bool, error) {
	if f.coversInstantFn == nil {
		panic("CoversInstant not configured")
	}
	return f.coversInstantFn(ctx, professionalID, instant)
}

type fakeExceptions struct {
	coversInstantFn func(ctx context.Context, professionalID uuid.UUID, instant time.Time) (bool, error)
}

func (f *fakeExceptions) Create(ctx context.Context, ex domain.DateException) (domain.DateException, error) {
	panic("Create not configured")
}

func (f *fakeExceptions) GetByID(ctx context.Context, id uuid.UUID) (domain.DateException, error) {
	panic("GetByID not configured")
}

func (f *fakeExceptions) ListByProfessional(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.DateException, error) {
	panic("ListByProfessional not configured")
}

func (f *fakeExceptions) Delete(ctx context.Context, professionalID, id uuid.UUID) error {
	panic("Delete not configured")
}

func (f *fakeExceptions) CoversInstant(ctx context.Context, professionalID uuid.UUID, instant time.Time) (bool, error) {
	if f.coversInstantFn == nil {
		panic("CoversInstant not configured")
	}
	return f.coversInstantFn(ctx, professionalID, instant)
}

type fakeBlocks struct {
	overlapsFn func(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error)
}

func (f *fakeBlocks) Create(ctx context.Context, block domain.UnavailabilityBlock) (domain.UnavailabilityBlock, error) {
	panic("Create not configured")
}

func (f *fakeBlocks) GetByID(ctx context.Context, id uuid.UUID) (domain.UnavailabilityBlock, error) {
	panic("GetByID not configured")
}

func (f *fakeBlocks) ListByProfessional(ctx context.Context, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.UnavailabilityBlock, error) {
	panic("ListByProfessional not configured")
}

func (f *fakeBlocks) Update(ctx context.Context, block domain.UnavailabilityBlock) (domain.UnavailabilityBlock, error) {
	panic("Update not configured")
}

func (f *fakeBlocks) Delete(ctx context.Context, professionalID, id uuid.UUID) error {
	panic("Delete not configured")
}

func (f *fakeBlocks) Overlaps(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	if f.overlapsFn == nil {
		panic("Overlaps not configured")
	}
	return f.overlapsFn(ctx, professionalID, start, end, excludeID)
}

type fakeAppointments struct {
	hasConflictFn        func(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error)
	hasPatientConflictFn func(ctx context.Context, professionalID, patientID uuid.UUID, start, end time.Time) (bool, error)
}

func (f *fakeAppointments) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	panic("Create not configured")
}

func (f *fakeAppointments) GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	panic("GetByID not configured")
}

func (f *fakeAppointments) ListByProfessional(ctx context.Context, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	panic("ListByProfessional not configured")
}

func (f *fakeAppointments) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) (domain.Appointment, error) {
	panic("UpdateTimes not configured")
}

func (f *fakeAppointments) UpdateStatus(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	panic("UpdateStatus not configured")
}

func (f *fakeAppointments) HasConflict(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	if f.hasConflictFn == nil {
		panic("HasConflict not configured")
	}
	return f.hasConflictFn(ctx, professionalID, start, end, excludeID)
}

func (f *fakeAppointments) HasPatientConflict(ctx context.Context, professionalID, patientID uuid.UUID, start, end time.Time) (bool, error) {
	if f.hasPatientConflictFn == nil {
		panic("HasPatientConflict not configured")
	}
	return f.hasPatientConflictFn(ctx, professionalID, patientID, start, end)
}

func covers(v bool) func(context.Context, uuid.UUID, time.Time) (bool, error) {
	return func(context.Context, uuid.UUID, time.Time) (bool, error) { return v, nil }
}

func overlaps(v bool) func(context.Context, uuid.UUID, time.Time, time.Time, uuid.UUID) (bool, error) {
	return func(context.Context, uuid.UUID, time.Time, time.Time, uuid.UUID) (bool, error) { return v, nil }
}

var (
	slotStart = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	slotEnd   = time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
)

func TestCanBook_ApprovedInsideRuleCoverage(t *testing.T) {
	r := NewResolver(
		&fakeRules{coversInstantFn: covers(true)},
		&fakeExceptions{},
		&fakeBlocks{overlapsFn: overlaps(false)},
		&fakeAppointments{hasConflictFn: overlaps(false)},
		Policy{},
	)

	d, err := r.CanBook(context.Background(), uuid.New(), uuid.New(), slotStart, slotEnd, uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook error: %v", err)
	}
	if !d.OK || d.Reason != ReasonNone {
		t.Fatalf("decision = %+v, want approved", d)
	}
}

func TestCanBook_ExceptionCoverageWhenNoRuleMatches(t *testing.T) {
	r := NewResolver(
		&fakeRules{coversInstantFn: covers(false)},
		&fakeExceptions{coversInstantFn: covers(true)},
		&fakeBlocks{overlapsFn: overlaps(false)},
		&fakeAppointments{hasConflictFn: overlaps(false)},
		Policy{},
	)

	d, err := r.CanBook(context.Background(), uuid.New(), uuid.New(), slotStart, slotEnd, uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook error: %v", err)
	}
	if !d.OK {
		t.Fatalf("decision = %+v, want approved via exception", d)
	}
}

func TestCanBook_RejectsOutsideWorkingHours(t *testing.T) {
	// Blocks and appointments are deliberately unconfigured: rejection on
	// coverage must short-circuit before they are consulted.
	r := NewResolver(
		&fakeRules{coversInstantFn: covers(false)},
		&fakeExceptions{coversInstantFn: covers(false)},
		&fakeBlocks{},
		&fakeAppointments{},
		Policy{},
	)

	d, err := r.CanBook(context.Background(), uuid.New(), uuid.New(), slotStart, slotEnd, uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook error: %v", err)
	}
	if d.OK || d.Reason != ReasonNotWorkingHours {
		t.Fatalf("decision = %+v, want NOT_WORKING_HOURS", d)
	}
}

func TestCanBook_BlockedPeriodBeatsFreeSlot(t *testing.T) {
	r := NewResolver(
		&fakeRules{coversInstantFn: covers(true)},
		&fakeExceptions{},
		&fakeBlocks{overlapsFn: overlaps(true)},
		&fakeAppointments{},
		Policy{},
	)

	d, err := r.CanBook(context.Background(), uuid.New(), uuid.New(), slotStart, slotEnd, uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook error: %v", err)
	}
	if d.OK || d.Reason != ReasonBlockedPeriod {
		t.Fatalf("decision = %+v, want BLOCKED_PERIOD", d)
	}
}

func TestCanBook_SlotTakenOnAppointmentConflict(t *testing.T) {
	r := NewResolver(
		&fakeRules{coversInstantFn: covers(true)},
		&fakeExceptions{},
		&fakeBlocks{overlapsFn: overlaps(false)},
		&fakeAppointments{hasConflictFn: overlaps(true)},
		Policy{},
	)

	d, err := r.CanBook(context.Background(), uuid.New(), uuid.New(), slotStart, slotEnd, uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook error: %v", err)
	}
	if d.OK || d.Reason != ReasonSlotTaken {
		t.Fatalf("decision = %+v, want SLOT_TAKEN", d)
	}
}

func TestCanBook_PassesExcludeIDToConflictCheck(t *testing.T) {
	excluded := uuid.New()
	var got uuid.UUID
	r := NewResolver(
		&fakeRules{coversInstantFn: covers(true)},
		&fakeExceptions{},
		&fakeBlocks{overlapsFn: overlaps(false)},
		&fakeAppointments{hasConflictFn: func(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
			got = excludeID
			return false, nil
		}},
		Policy{},
	)

	if _, err := r.CanBook(context.Background(), uuid.New(), uuid.New(), slotStart, slotEnd, excluded); err != nil {
		t.Fatalf("CanBook error: %v", err)
	}
	if got != excluded {
		t.Fatalf("excludeID passed to HasConflict = %s, want %s", got, excluded)
	}
}

func TestCanBook_ChecksCoverageOfStartInstantOnly(t *testing.T) {
	var got time.Time
	r := NewResolver(
		&fakeRules{coversInstantFn: func(ctx context.Context, professionalID uuid.UUID, instant time.Time) (bool, error) {
			got = instant
			return true, nil
		}},
		&fakeExceptions{},
		&fakeBlocks{overlapsFn: overlaps(false)},
		&fakeAppointments{hasConflictFn: overlaps(false)},
		Policy{},
	)

	// The interval runs past any plausible closing time; only the start
	// instant is checked for coverage.
	lateEnd := slotStart.Add(6 * time.Hour)
	d, err := r.CanBook(context.Background(), uuid.New(), uuid.New(), slotStart, lateEnd, uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook error: %v", err)
	}
	if !d.OK {
		t.Fatalf("decision = %+v, want approved", d)
	}
	if !got.Equal(slotStart) {
		t.Fatalf("coverage checked at %v, want %v", got, slotStart)
	}
}

func TestCanBook_PatientOverlapPolicy(t *testing.T) {
	patientID := uuid.New()

	build := func(policy Policy, patientTaken bool) *Resolver {
		return NewResolver(
			&fakeRules{coversInstantFn: covers(true)},
			&fakeExceptions{},
			&fakeBlocks{overlapsFn: overlaps(false)},
			&fakeAppointments{
				hasConflictFn: overlaps(false),
				hasPatientConflictFn: func(ctx context.Context, professionalID, pid uuid.UUID, start, end time.Time) (bool, error) {
					if pid != patientID {
						t.Errorf("patient id = %s, want %s", pid, patientID)
					}
					return patientTaken, nil
				},
			},
			policy,
		)
	}

	// Policy off: the patient check never runs, even with a double booking.
	off := NewResolver(
		&fakeRules{coversInstantFn: covers(true)},
		&fakeExceptions{},
		&fakeBlocks{overlapsFn: overlaps(false)},
		&fakeAppointments{hasConflictFn: overlaps(false)},
		Policy{},
	)
	d, err := off.CanBook(context.Background(), uuid.New(), patientID, slotStart, slotEnd, uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook error: %v", err)
	}
	if !d.OK {
		t.Fatalf("decision with policy off = %+v, want approved", d)
	}

	// Policy on: an overlapping appointment of the same patient rejects.
	on := build(Policy{PreventPatientOverlap: true}, true)
	d, err = on.CanBook(context.Background(), uuid.New(), patientID, slotStart, slotEnd, uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook error: %v", err)
	}
	if d.OK || d.Reason != ReasonSlotTaken {
		t.Fatalf("decision with policy on = %+v, want SLOT_TAKEN", d)
	}

	on = build(Policy{PreventPatientOverlap: true}, false)
	d, err = on.CanBook(context.Background(), uuid.New(), patientID, slotStart, slotEnd, uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook error: %v", err)
	}
	if !d.OK {
		t.Fatalf("decision with policy on, no overlap = %+v, want approved", d)
	}
}

func TestCanBook_PropagatesStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewResolver(
		&fakeRules{coversInstantFn: func(context.Context, uuid.UUID, time.Time) (bool, error) {
			return false, boom
		}},
		&fakeExceptions{},
		&fakeBlocks{},
		&fakeAppointments{},
		Policy{},
	)

	if _, err := r.CanBook(context.Background(), uuid.New(), uuid.New(), slotStart, slotEnd, uuid.Nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
