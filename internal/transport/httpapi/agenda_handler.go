package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"turnos/backend/internal/domain"
	"turnos/backend/internal/service/agenda"
)

type agendaService interface {
	CreateRule(ctx context.Context, in agenda.CreateRuleInput) (domain.ScheduleRule, error)
	ListRules(ctx context.Context, professionalID uuid.UUID) ([]domain.ScheduleRule, error)
	DeactivateRule(ctx context.Context, professionalID, id uuid.UUID) error
	CreateException(ctx context.Context, in agenda.CreateExceptionInput) (domain.DateException, error)
	ListExceptions(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.DateException, error)
	DeleteException(ctx context.Context, professionalID, id uuid.UUID) error
	CreateBlock(ctx context.Context, in agenda.BlockInput) (domain.UnavailabilityBlock, error)
	UpdateBlock(ctx context.Context, id uuid.UUID, in agenda.BlockInput) (domain.UnavailabilityBlock, error)
	ListBlocks(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.UnavailabilityBlock, error)
	DeleteBlock(ctx context.Context, professionalID, id uuid.UUID) error
	EffectiveWindows(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.AgendaWindow, error)
}

type AgendaHandler struct {
	svc agendaService
	log *slog.Logger
}

func NewAgendaHandler(svc agendaService, log *slog.Logger) *AgendaHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AgendaHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.agenda")),
	}
}

// RegisterRoutes mounts the agenda configuration API. Every route is
// keyed by a professional id and guarded by the actor scope check.
func (h *AgendaHandler) RegisterRoutes(g *echo.Group) {
	scope := RequireProfessionalScope()

	g.POST("/professionals/:id/schedule-rules", h.CreateRule, scope)
	g.GET("/professionals/:id/schedule-rules", h.ListRules, scope)
	g.DELETE("/professionals/:id/schedule-rules/:ruleID", h.DeactivateRule, scope)

	g.POST("/professionals/:id/date-exceptions", h.CreateException, scope)
	g.GET("/professionals/:id/date-exceptions", h.ListExceptions, scope)
	g.DELETE("/professionals/:id/date-exceptions/:exceptionID", h.DeleteException, scope)

	g.POST("/professionals/:id/unavailability-blocks", h.CreateBlock, scope)
	g.GET("/professionals/:id/unavailability-blocks", h.ListBlocks, scope)
	g.PUT("/professionals/:id/unavailability-blocks/:blockID", h.UpdateBlock, scope)
	g.DELETE("/professionals/:id/unavailability-blocks/:blockID", h.DeleteBlock, scope)

	g.GET("/professionals/:id/agenda", h.Agenda, scope)
}

type createRuleRequest struct {
	Weekday     int     `json:"weekday"`
	StartMinute int     `json:"start_minute"`
	EndMinute   int     `json:"end_minute"`
	SlotMinutes int     `json:"slot_minutes"`
	ValidFrom   string  `json:"valid_from"`
	ValidUntil  *string `json:"valid_until"`
}

func (h *AgendaHandler) CreateRule(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}

	var req createRuleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	validFrom, err := parseDate(req.ValidFrom)
	if err != nil {
		return badRequest(c, "valid_from must be a YYYY-MM-DD date")
	}
	var validUntil *time.Time
	if req.ValidUntil != nil {
		u, err := parseDate(*req.ValidUntil)
		if err != nil {
			return badRequest(c, "valid_until must be a YYYY-MM-DD date")
		}
		validUntil = &u
	}

	rule, err := h.svc.CreateRule(c.Request().Context(), agenda.CreateRuleInput{
		ProfessionalID: professionalID,
		Weekday:        domain.Weekday(req.Weekday),
		StartMinute:    req.StartMinute,
		EndMinute:      req.EndMinute,
		SlotMinutes:    req.SlotMinutes,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info("schedule rule created",
		slog.String("rule_id", rule.ID.String()),
		slog.String("professional_id", rule.ProfessionalID.String()),
		slog.Int("weekday", int(rule.Weekday)),
	)
	return c.JSON(http.StatusCreated, rule)
}

func (h *AgendaHandler) ListRules(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}

	rules, err := h.svc.ListRules(c.Request().Context(), professionalID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, rules)
}

func (h *AgendaHandler) DeactivateRule(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}
	ruleID, err := uuidParam(c, "ruleID")
	if err != nil {
		return badRequest(c, "invalid rule id")
	}

	if err := h.svc.DeactivateRule(c.Request().Context(), professionalID, ruleID); err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info("schedule rule deactivated",
		slog.String("rule_id", ruleID.String()),
		slog.String("professional_id", professionalID.String()),
	)
	return c.NoContent(http.StatusNoContent)
}

type createExceptionRequest struct {
	Date        string `json:"date"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	SlotMinutes int    `json:"slot_minutes"`
	Notes       string `json:"notes"`
}

func (h *AgendaHandler) CreateException(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}

	var req createExceptionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return badRequest(c, "date must be a YYYY-MM-DD date")
	}

	exc, err := h.svc.CreateException(c.Request().Context(), agenda.CreateExceptionInput{
		ProfessionalID: professionalID,
		Date:           date,
		StartMinute:    req.StartMinute,
		EndMinute:      req.EndMinute,
		SlotMinutes:    req.SlotMinutes,
		Notes:          req.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info("date exception created",
		slog.String("exception_id", exc.ID.String()),
		slog.String("professional_id", exc.ProfessionalID.String()),
		slog.Time("date", exc.Date),
	)
	return c.JSON(http.StatusCreated, exc)
}

func (h *AgendaHandler) ListExceptions(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}
	from, to, err := windowQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	excs, err := h.svc.ListExceptions(c.Request().Context(), professionalID, from, to)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, excs)
}

func (h *AgendaHandler) DeleteException(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}
	exceptionID, err := uuidParam(c, "exceptionID")
	if err != nil {
		return badRequest(c, "invalid exception id")
	}

	if err := h.svc.DeleteException(c.Request().Context(), professionalID, exceptionID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type blockRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Reason    string    `json:"reason"`
}

func (h *AgendaHandler) CreateBlock(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}

	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	block, err := h.svc.CreateBlock(c.Request().Context(), agenda.BlockInput{
		ProfessionalID: professionalID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Reason:         req.Reason,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.log.Info("unavailability block created",
		slog.String("block_id", block.ID.String()),
		slog.String("professional_id", block.ProfessionalID.String()),
		slog.Time("start_time", block.StartTime),
		slog.Time("end_time", block.EndTime),
	)
	return c.JSON(http.StatusCreated, block)
}

func (h *AgendaHandler) UpdateBlock(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}
	blockID, err := uuidParam(c, "blockID")
	if err != nil {
		return badRequest(c, "invalid block id")
	}

	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	block, err := h.svc.UpdateBlock(c.Request().Context(), blockID, agenda.BlockInput{
		ProfessionalID: professionalID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Reason:         req.Reason,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, block)
}

func (h *AgendaHandler) ListBlocks(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}
	from, to, err := windowQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	blocks, err := h.svc.ListBlocks(c.Request().Context(), professionalID, from, to)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, blocks)
}

func (h *AgendaHandler) DeleteBlock(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}
	blockID, err := uuidParam(c, "blockID")
	if err != nil {
		return badRequest(c, "invalid block id")
	}

	if err := h.svc.DeleteBlock(c.Request().Context(), professionalID, blockID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Agenda returns the professional's effective bookable windows over the
// requested range, blocks already subtracted.
func (h *AgendaHandler) Agenda(c echo.Context) error {
	professionalID, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid professional id")
	}
	from, to, err := windowQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	windows, err := h.svc.EffectiveWindows(c.Request().Context(), professionalID, from, to)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, windows)
}
