package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/clhstestify/online-judge/internal/dto"
	"github.com/clhstestify/online-judge/internal/service"
	"github.com/clhstestify/online-judge/internal/utils"
)

// ExamHandler wires exam sheet endpoints for contestants.
type ExamHandler struct {
	exams    service.ExamService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewExamHandler constructs the handler.
func NewExamHandler(exams service.ExamService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		exams:    exams,
		validate: validator.New(),
		logger:   logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches exam endpoints to the router group.
func (h *ExamHandler) Register(router fiber.Router) {
	router.Get("/:id/sheet", h.sheet)
	router.Put("/:id/sheet", h.saveSheet)
}

func (h *ExamHandler) sheet(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	sheet, err := h.exams.Sheet(c.Context(), id)
	if err != nil {
		return h.handleError(c, id, err, "failed to load exam sheet")
	}

	return utils.SendSuccess(c, "exam sheet", sheet)
}

func (h *ExamHandler) saveSheet(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ExamSheetRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.exams.SaveSheet(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, id, err, "failed to save exam sheet")
	}

	return utils.SendSuccess(c, "exam sheet saved", result)
}

func (h *ExamHandler) handleError(c *fiber.Ctx, id uint, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrParticipationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "participation not found")
	case errors.Is(err, service.ErrParticipationLocked):
		return utils.SendError(c, fiber.StatusForbidden, "participation is locked")
	case errors.Is(err, service.ErrContestFinished):
		return utils.SendError(c, fiber.StatusForbidden, "contest has ended")
	case errors.Is(err, service.ErrNoPapersAvailable):
		return utils.SendError(c, fiber.StatusConflict, "contest has no exam papers")
	case errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrAnswerShape),
		isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Uint("participation_id", id).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
