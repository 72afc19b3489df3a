package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"turnos/backend/internal/service/agenda"
	"turnos/backend/internal/service/appointments"
	"turnos/backend/internal/store"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// statusForCode maps rejection categories to HTTP statuses. Availability
// rejections use 422: the request is well formed but the slot cannot
// legally hold an appointment.
func statusForCode(code appointments.Code) int {
	switch code {
	case appointments.CodeValidation:
		return http.StatusBadRequest
	case appointments.CodeNotFound:
		return http.StatusNotFound
	case appointments.CodeSlotTaken, appointments.CodeInvalidStateTransition:
		return http.StatusConflict
	case appointments.CodeNotWorkingHours, appointments.CodeBlockedPeriod:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError translates service errors into the API error envelope.
// Anything unrecognized is a server fault and is logged without leaking
// detail to the client.
func respondError(c echo.Context, log *slog.Logger, err error) error {
	var rErr *appointments.RejectionError
	if errors.As(err, &rErr) {
		if statusForCode(rErr.Code) == http.StatusInternalServerError {
			log.Error("request failed", slog.Any("err", err))
			return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		}
		log.Warn("request rejected", slog.String("code", string(rErr.Code)), slog.String("reason", rErr.Error()))
		return errorJSON(c, statusForCode(rErr.Code), string(rErr.Code), rErr.Error())
	}

	var vErr *agenda.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("invalid request", slog.Any("err", err))
		return errorJSON(c, http.StatusBadRequest, string(appointments.CodeValidation), vErr.Error())
	}

	if errors.Is(err, store.ErrNotFound) {
		log.Warn("not found", slog.Any("err", err))
		return errorJSON(c, http.StatusNotFound, string(appointments.CodeNotFound), "resource not found")
	}
	if errors.Is(err, store.ErrConflict) {
		log.Info("conflict", slog.Any("err", err))
		return errorJSON(c, http.StatusConflict, string(appointments.CodeSlotTaken), "the requested time overlaps an existing appointment")
	}

	log.Error("request failed", slog.Any("err", err))
	return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal error")
}

func badRequest(c echo.Context, message string) error {
	return errorJSON(c, http.StatusBadRequest, string(appointments.CodeValidation), message)
}
