package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"turnos/backend/internal/domain"
	"turnos/backend/internal/service/appointments"
	"turnos/backend/internal/service/availability"
)

type appointmentsService interface {
	Book(ctx context.Context, in appointments.BookInput) (domain.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, startTime, endTime time.Time) (domain.Appointment, error)
	Confirm(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	MarkAbsent(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, cancelledBy, reason string) (domain.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
}

type availabilityResolver interface {
	CanBook(ctx context.Context, professionalID, patientID uuid.UUID, start, end time.Time, excludeAppointmentID uuid.UUID) (availability.Decision, error)
}

type AppointmentsHandler struct {
	svc      appointmentsService
	resolver availabilityResolver
	log      *slog.Logger
}

func NewAppointmentsHandler(svc appointmentsService, resolver availabilityResolver, log *slog.Logger) *AppointmentsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsHandler{
		svc:      svc,
		resolver: resolver,
		log:      log.With(slog.String("component", "http.appointments")),
	}
}

func (h *AppointmentsHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/appointments", h.Book)
	g.GET("/appointments/:id", h.Get)
	g.PUT("/appointments/:id/times", h.Reschedule)
	g.POST("/appointments/:id/confirm", h.Confirm)
	g.POST("/appointments/:id/complete", h.Complete)
	g.POST("/appointments/:id/cancel", h.Cancel)
	g.POST("/appointments/:id/absent", h.MarkAbsent)

	scope := RequireProfessionalScope()
	g.GET("/professionals/:id/appointments", h.ListByProfessional, scope)
	g.GET("/professionals/:id/availability", h.CheckAvailability, scope)
}

type bookRequest struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Reason         string    `json:"reason"`
	IsExtraSlot    bool      `json:"is_extra_slot"`
}

func (h *AppointmentsHandler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.Book(c.Request().Context(), appointments.BookInput{
		ProfessionalID: req.ProfessionalID,
		PatientID:      req.PatientID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Reason:         req.Reason,
		IsExtraSlot:    req.IsExtraSlot,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info("appointment booked",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("professional_id", appt.ProfessionalID.String()),
		slog.Time("start_time", appt.StartTime),
		slog.Time("end_time", appt.EndTime),
	)
	return c.JSON(http.StatusCreated, appt)
}

func (h *AppointmentsHandler) Get(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, appt)
}

type rescheduleRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (h *AppointmentsHandler) Reschedule(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.Reschedule(c.Request().Context(), id, req.StartTime, req.EndTime)
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info("appointment rescheduled",
		slog.String("appointment_id", appt.ID.String()),
		slog.Time("start_time", appt.StartTime),
		slog.Time("end_time", appt.EndTime),
	)
	return c.JSON(http.StatusOK, appt)
}

func (h *AppointmentsHandler) Confirm(c echo.Context) error {
	return h.transition(c, "confirmed", h.svc.Confirm)
}

func (h *AppointmentsHandler) Complete(c echo.Context) error {
	return h.transition(c, "completed", h.svc.Complete)
}

func (h *AppointmentsHandler) MarkAbsent(c echo.Context) error {
	return h.transition(c, "absent", h.svc.MarkAbsent)
}

type cancelRequest struct {
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason"`
}

func (h *AppointmentsHandler) Cancel(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.Cancel(c.Request().Context(), id, req.CancelledBy, req.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info("appointment cancelled",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("cancelled_by", appt.CancelledBy),
	)
	return c.JSON(http.StatusOK, appt)
}

func (h *AppointmentsHandler) transition(c echo.Context, name string, apply func(context.Context, uuid.UUID) (domain.Appointment, error)) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := apply(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info("appointment status changed",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("status", name),
	)
	return c.JSON(http.StatusOK, appt)
}

func (h *AppointmentsHandler) ListByProfessional(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}
	from, to, err := windowQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	appts, err := h.svc.ListByProfessional(c.Request().Context(), professionalID, from, to)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, appts)
}

// CheckAvailability is a read-only dry run of the booking checks. A
// green answer can still lose the slot to a concurrent booking.
func (h *AppointmentsHandler) CheckAvailability(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}

	startStr := c.QueryParam("start")
	endStr := c.QueryParam("end")
	if startStr == "" || endStr == "" {
		return badRequest(c, "start and end query parameters are required")
	}
	start, err := parseInstant(startStr)
	if err != nil {
		return badRequest(c, "start must be an RFC 3339 timestamp")
	}
	end, err := parseInstant(endStr)
	if err != nil {
		return badRequest(c, "end must be an RFC 3339 timestamp")
	}
	if !end.After(start) {
		return badRequest(c, "end must be after start")
	}

	patientID := uuid.Nil
	if raw := strings.TrimSpace(c.QueryParam("patient_id")); raw != "" {
		patientID, err = uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid patient_id")
		}
	}
	exclude := uuid.Nil
	if raw := strings.TrimSpace(c.QueryParam("exclude_appointment_id")); raw != "" {
		exclude, err = uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid exclude_appointment_id")
		}
	}

	d, err := h.resolver.CanBook(c.Request().Context(), professionalID, patientID, start, end, exclude)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, d)
}
