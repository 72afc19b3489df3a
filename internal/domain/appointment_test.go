package domain

import (
	"testing"
	"time"
)

func TestAppointmentStatusCanBecome(t *testing.T) {
	cases := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{AppointmentPending, AppointmentConfirmed, true},
		{AppointmentPending, AppointmentCompleted, true},
		{AppointmentPending, AppointmentCancelled, true},
		{AppointmentPending, AppointmentAbsent, true},
		{AppointmentConfirmed, AppointmentCompleted, true},
		{AppointmentConfirmed, AppointmentCancelled, true},
		{AppointmentConfirmed, AppointmentAbsent, true},

		{AppointmentConfirmed, AppointmentConfirmed, false},
		{AppointmentPending, AppointmentPending, false},
		{AppointmentCompleted, AppointmentCancelled, false},
		{AppointmentCancelled, AppointmentConfirmed, false},
		{AppointmentAbsent, AppointmentCompleted, false},
		{AppointmentCancelled, AppointmentPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanBecome(tc.to); got != tc.want {
			t.Errorf("CanBecome(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAppointmentStatusTerminal(t *testing.T) {
	terminal := []AppointmentStatus{AppointmentCompleted, AppointmentCancelled, AppointmentAbsent}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}
	for _, s := range []AppointmentStatus{AppointmentPending, AppointmentConfirmed} {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}

func TestAppointmentStatusCountsForConflict(t *testing.T) {
	if AppointmentCancelled.CountsForConflict() {
		t.Fatalf("cancelled appointment counts for conflict")
	}
	if AppointmentCompleted.CountsForConflict() {
		t.Fatalf("completed appointment counts for conflict")
	}
	// An absent patient still consumed the slot on the calendar.
	if !AppointmentAbsent.CountsForConflict() {
		t.Fatalf("absent appointment does not count for conflict")
	}
	if !AppointmentPending.CountsForConflict() || !AppointmentConfirmed.CountsForConflict() {
		t.Fatalf("open appointment does not count for conflict")
	}
}

func TestAppointmentConflictsWith(t *testing.T) {
	appt := Appointment{
		StartTime: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC),
		Status:    AppointmentPending,
	}

	if !appt.ConflictsWith(time.Date(2026, 1, 5, 10, 15, 0, 0, time.UTC), time.Date(2026, 1, 5, 10, 45, 0, 0, time.UTC)) {
		t.Fatalf("overlapping interval not flagged")
	}
	if appt.ConflictsWith(time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC), time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("back-to-back interval flagged as conflict")
	}

	appt.Status = AppointmentCancelled
	if appt.ConflictsWith(time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("cancelled appointment flagged as conflict")
	}
}
