package handler

import (
	"errors"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/format"
	"github.com/clhstestify/online-judge/internal/repository"
	"github.com/clhstestify/online-judge/internal/service"
	"github.com/clhstestify/online-judge/internal/utils"
)

// ContestHandler wires contest administration endpoints: format configuration
// and manual aggregate recomputation.
type ContestHandler struct {
	contests repository.ContestRepository
	scoring  service.ScoringService
	logger   zerolog.Logger
}

// NewContestHandler constructs the handler.
func NewContestHandler(contests repository.ContestRepository, scoring service.ScoringService, logger zerolog.Logger) *ContestHandler {
	return &ContestHandler{
		contests: contests,
		scoring:  scoring,
		logger:   logger.With().Str("component", "contest_handler").Logger(),
	}
}

// Register attaches contest admin endpoints to the router group.
func (h *ContestHandler) Register(router fiber.Router) {
	router.Get("/formats", h.listFormats)
	router.Put("/:id/format", h.updateFormat)
	router.Post("/participations/:id/recompute", h.recompute)
}

func (h *ContestHandler) listFormats(c *fiber.Ctx) error {
	names := format.Names()
	sort.Strings(names)

	return utils.SendSuccess(c, "supported contest formats", names)
}

type formatConfigRequest struct {
	FormatName   string                 `json:"format_name"`
	FormatConfig map[string]interface{} `json:"format_config"`
}

func (h *ContestHandler) updateFormat(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload formatConfigRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// Reject the configuration before anything is stored.
	if err := h.scoring.ValidateConfig(payload.FormatName, payload.FormatConfig); err != nil {
		if errors.Is(err, format.ErrUnknownFormat) {
			return utils.SendError(c, fiber.StatusBadRequest, "unknown contest format")
		}
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if _, err := h.contests.GetByID(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "contest not found")
		}
		h.logger.Error().Err(err).Uint("contest_id", id).Msg("failed to load contest")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load contest")
	}

	if err := h.contests.UpdateFormatConfig(c.Context(), id, payload.FormatName, payload.FormatConfig); err != nil {
		h.logger.Error().Err(err).Uint("contest_id", id).Msg("failed to update format config")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update format config")
	}

	return utils.SendSuccess(c, "format config updated", payload)
}

func (h *ContestHandler) recompute(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	participation, err := h.scoring.Recompute(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrParticipationNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "participation not found")
		}
		h.logger.Error().Err(err).Uint("participation_id", id).Msg("failed to recompute aggregate")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to recompute aggregate")
	}

	return utils.SendSuccess(c, "aggregate recomputed", fiber.Map{
		"participation_id": participation.ID,
		"score":            participation.Score,
		"cumtime":          participation.CumTime,
		"tiebreaker":       participation.Tiebreaker,
	})
}
