package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/clhstestify/online-judge/internal/service"
	"github.com/clhstestify/online-judge/internal/utils"
)

// ViolationHandler wires integrity violation endpoints.
type ViolationHandler struct {
	violations service.ViolationService
	logger     zerolog.Logger
}

// NewViolationHandler constructs the handler.
func NewViolationHandler(violations service.ViolationService, logger zerolog.Logger) *ViolationHandler {
	return &ViolationHandler{
		violations: violations,
		logger:     logger.With().Str("component", "violation_handler").Logger(),
	}
}

// Register attaches violation endpoints to the router group.
func (h *ViolationHandler) Register(router fiber.Router) {
	router.Post("/:id/violations", h.report)
	router.Get("/:id/violations", h.status)
}

func (h *ViolationHandler) report(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	status, err := h.violations.Report(c.Context(), id)
	if err != nil {
		return h.handleError(c, id, err, "failed to record violation")
	}

	return utils.SendSuccess(c, "violation recorded", status)
}

func (h *ViolationHandler) status(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	status, err := h.violations.Status(c.Context(), id)
	if err != nil {
		return h.handleError(c, id, err, "failed to load violation status")
	}

	return utils.SendSuccess(c, "violation status", status)
}

func (h *ViolationHandler) handleError(c *fiber.Ctx, id uint, err error, message string) error {
	if errors.Is(err, service.ErrParticipationNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "participation not found")
	}

	h.logger.Error().Err(err).Uint("participation_id", id).Msg(message)
	return utils.SendError(c, fiber.StatusInternalServerError, message)
}
