package appointments

import (
	"fmt"

	"turnos/backend/internal/domain"
	"turnos/backend/internal/service/availability"
)

// Code is the machine-readable rejection category surfaced to the API
// layer. Every error in this package is recoverable: the caller corrects
// the input or picks a different time and retries.
type Code string

const (
	CodeValidation             Code = "VALIDATION_ERROR"
	CodeNotWorkingHours        Code = "NOT_WORKING_HOURS"
	CodeBlockedPeriod          Code = "BLOCKED_PERIOD"
	CodeSlotTaken              Code = "SLOT_TAKEN"
	CodeInvalidStateTransition Code = "INVALID_STATE_TRANSITION"
	CodeNotFound               Code = "NOT_FOUND"
)

type RejectionError struct {
	Code Code
	msg  string
}

func (e *RejectionError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &RejectionError{Code: CodeValidation, msg: msg}
}

func notFoundError(what string) error {
	return &RejectionError{Code: CodeNotFound, msg: what + " not found"}
}

func slotTakenError() error {
	return &RejectionError{Code: CodeSlotTaken, msg: "the requested time overlaps an existing appointment"}
}

func transitionError(verb string, current domain.AppointmentStatus) error {
	return &RejectionError{
		Code: CodeInvalidStateTransition,
		msg:  fmt.Sprintf("cannot %s a %s appointment", verb, current),
	}
}

func rejectionFromReason(r availability.Reason) error {
	switch r {
	case availability.ReasonNotWorkingHours:
		return &RejectionError{Code: CodeNotWorkingHours, msg: "the requested start is outside the professional's working hours"}
	case availability.ReasonBlockedPeriod:
		return &RejectionError{Code: CodeBlockedPeriod, msg: "the requested time falls in an unavailability block"}
	default:
		return slotTakenError()
	}
}
