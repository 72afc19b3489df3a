package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type WindowSource string

const (
	WindowSourceRule      WindowSource = "rule"
	WindowSourceException WindowSource = "exception"
)

// AgendaWindow is one contiguous stretch of bookable time for a
// professional, already reduced by unavailability blocks.
type AgendaWindow struct {
	ProfessionalID uuid.UUID    `json:"professional_id"`
	StartTime      time.Time    `json:"start_time"`
	EndTime        time.Time    `json:"end_time"`
	SlotMinutes    int          `json:"slot_minutes"`
	Source         WindowSource `json:"source"`
}

// EffectiveWindows expands weekly rules and date exceptions into concrete
// windows over [from, to) and subtracts unavailability blocks. Rules whose
// validity window does not contain a given date contribute nothing on that
// date; NoFixedDay rules contribute nothing ever. The result is clamped to
// [from, to) and sorted by start time.
//
// Windows describe working hours only; existing appointments are not
// considered here. Booking always goes through the availability resolver.
func EffectiveWindows(professionalID uuid.UUID, rules []ScheduleRule, exceptions []DateException, blocks []UnavailabilityBlock, from, to time.Time) []AgendaWindow {
	from = from.UTC()
	to = to.UTC()
	if !to.After(from) {
		return nil
	}

	out := make([]AgendaWindow, 0, 16)

	for day := DateOfUTC(from); day.Before(to); day = day.AddDate(0, 0, 1) {
		dow := WeekdayOfUTC(day)

		for i := range rules {
			r := &rules[i]
			if r.Weekday == NoFixedDay || r.Weekday != dow || !r.InForceOn(day) {
				continue
			}
			out = appendClamped(out, AgendaWindow{
				ProfessionalID: professionalID,
				StartTime:      day.Add(time.Duration(r.StartMinute) * time.Minute),
				EndTime:        day.Add(time.Duration(r.EndMinute) * time.Minute),
				SlotMinutes:    r.SlotMinutes,
				Source:         WindowSourceRule,
			}, blocks, from, to)
		}

		for i := range exceptions {
			e := &exceptions[i]
			if !DateOfUTC(e.Date).Equal(day) {
				continue
			}
			out = appendClamped(out, AgendaWindow{
				ProfessionalID: professionalID,
				StartTime:      day.Add(time.Duration(e.StartMinute) * time.Minute),
				EndTime:        day.Add(time.Duration(e.EndMinute) * time.Minute),
				SlotMinutes:    e.SlotMinutes,
				Source:         WindowSourceException,
			}, blocks, from, to)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].EndTime.Before(out[j].EndTime)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})

	return out
}

func appendClamped(out []AgendaWindow, w AgendaWindow, blocks []UnavailabilityBlock, from, to time.Time) []AgendaWindow {
	if w.StartTime.Before(from) {
		w.StartTime = from
	}
	if w.EndTime.After(to) {
		w.EndTime = to
	}
	if !w.EndTime.After(w.StartTime) {
		return out
	}
	for _, frag := range subtractBlocks(w, blocks) {
		out = append(out, frag)
	}
	return out
}

// subtractBlocks removes every blocked interval from the window, possibly
// splitting it into fragments. Blocks may overlap each other; each is
// applied to every fragment produced so far.
func subtractBlocks(w AgendaWindow, blocks []UnavailabilityBlock) []AgendaWindow {
	frags := []AgendaWindow{w}

	for i := range blocks {
		b := &blocks[i]
		next := frags[:0:0]
		for _, f := range frags {
			if !Overlaps(f.StartTime, f.EndTime, b.StartTime, b.EndTime) {
				next = append(next, f)
				continue
			}
			if b.StartTime.After(f.StartTime) {
				left := f
				left.EndTime = b.StartTime
				next = append(next, left)
			}
			if b.EndTime.Before(f.EndTime) {
				right := f
				right.StartTime = b.EndTime
				next = append(next, right)
			}
		}
		frags = next
		if len(frags) == 0 {
			return nil
		}
	}

	return frags
}
