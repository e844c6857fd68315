package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/clhstestify/online-judge/internal/dto"
	"github.com/clhstestify/online-judge/internal/examkey"
	"github.com/clhstestify/online-judge/internal/service"
	"github.com/clhstestify/online-judge/internal/utils"
)

// PaperHandler wires answer key endpoints for contest staff.
type PaperHandler struct {
	papers service.PaperService
	logger zerolog.Logger
}

// NewPaperHandler constructs the handler.
func NewPaperHandler(papers service.PaperService, logger zerolog.Logger) *PaperHandler {
	return &PaperHandler{
		papers: papers,
		logger: logger.With().Str("component", "paper_handler").Logger(),
	}
}

// Register attaches paper endpoints to the router group.
func (h *PaperHandler) Register(router fiber.Router) {
	router.Put("/:id/answer-key", h.importKey)
	router.Get("/:id/answer-key", h.exportKey)
}

func (h *PaperHandler) importKey(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AnswerKeyImportRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	key, err := h.papers.ImportAnswerKey(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, id, err, "failed to import answer key")
	}

	return utils.SendSuccess(c, "answer key imported", key)
}

func (h *PaperHandler) exportKey(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	key, err := h.papers.ExportAnswerKey(c.Context(), id)
	if err != nil {
		return h.handleError(c, id, err, "failed to export answer key")
	}

	return utils.SendSuccess(c, "answer key", key)
}

func (h *PaperHandler) handleError(c *fiber.Ctx, id uint, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrPaperNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam paper not found")
	case errors.Is(err, service.ErrKeySourceMissing),
		errors.Is(err, service.ErrKeySourceConflict),
		errors.Is(err, service.ErrEmptyAnswerKey),
		isParseError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Uint("paper_id", id).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}

func isParseError(err error) bool {
	parseErrors := []error{
		examkey.ErrBadIndex,
		examkey.ErrMissingIndex,
		examkey.ErrCountMismatch,
		examkey.ErrMissingChoice,
		examkey.ErrInvalidChoice,
		examkey.ErrInvalidBoolean,
		examkey.ErrStatementCount,
	}
	for _, candidate := range parseErrors {
		if errors.Is(err, candidate) {
			return true
		}
	}

	return false
}
