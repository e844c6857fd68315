package handler

import (
	"bytes"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/clhstestify/online-judge/internal/service"
	"github.com/clhstestify/online-judge/internal/utils"
)

// ResolverHandler serves the read model consumed by resolver and scoreboard
// clients.
type ResolverHandler struct {
	resolver service.ResolverService
	logger   zerolog.Logger
}

// NewResolverHandler constructs the handler.
func NewResolverHandler(resolver service.ResolverService, logger zerolog.Logger) *ResolverHandler {
	return &ResolverHandler{
		resolver: resolver,
		logger:   logger.With().Str("component", "resolver_handler").Logger(),
	}
}

// Register attaches resolver endpoints to the router group.
func (h *ResolverHandler) Register(router fiber.Router) {
	router.Get("/:key", h.contest)
	router.Get("/:key/problems", h.problems)
	router.Get("/:key/teams", h.teams)
	router.Get("/:key/organizations", h.organizations)
	router.Get("/:key/languages", h.languages)
	router.Get("/:key/judgement-types", h.judgementTypes)
	router.Get("/:key/scoreboard", h.scoreboard)
	router.Get("/:key/event-feed", h.eventFeed)
}

func (h *ResolverHandler) contest(c *fiber.Ctx) error {
	data, err := h.resolver.Contest(c.Context(), c.Params("key"))
	if err != nil {
		return h.handleError(c, err, "failed to load contest")
	}

	return c.JSON(data)
}

func (h *ResolverHandler) problems(c *fiber.Ctx) error {
	data, err := h.resolver.Problems(c.Context(), c.Params("key"))
	if err != nil {
		return h.handleError(c, err, "failed to load problems")
	}

	return c.JSON(data)
}

func (h *ResolverHandler) teams(c *fiber.Ctx) error {
	data, err := h.resolver.Teams(c.Context(), c.Params("key"))
	if err != nil {
		return h.handleError(c, err, "failed to load teams")
	}

	return c.JSON(data)
}

func (h *ResolverHandler) organizations(c *fiber.Ctx) error {
	data, err := h.resolver.Organizations(c.Context(), c.Params("key"))
	if err != nil {
		return h.handleError(c, err, "failed to load organizations")
	}

	return c.JSON(data)
}

func (h *ResolverHandler) languages(c *fiber.Ctx) error {
	data, err := h.resolver.Languages(c.Context(), c.Params("key"))
	if err != nil {
		return h.handleError(c, err, "failed to load languages")
	}

	return c.JSON(data)
}

func (h *ResolverHandler) judgementTypes(c *fiber.Ctx) error {
	return c.JSON(h.resolver.JudgementTypes(c.Context()))
}

func (h *ResolverHandler) scoreboard(c *fiber.Ctx) error {
	data, err := h.resolver.Scoreboard(c.Context(), c.Params("key"))
	if err != nil {
		return h.handleError(c, err, "failed to build scoreboard")
	}

	return c.JSON(data)
}

func (h *ResolverHandler) eventFeed(c *fiber.Ctx) error {
	// The feed is a bounded one-shot replay, so it is buffered rather than
	// streamed; resolver clients read it to EOF in one request.
	var buf bytes.Buffer
	if err := h.resolver.EventFeed(c.Context(), c.Params("key"), &buf); err != nil {
		return h.handleError(c, err, "failed to build event feed")
	}

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	return c.Send(buf.Bytes())
}

func (h *ResolverHandler) handleError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrContestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "contest not found")
	case errors.Is(err, service.ErrScoreboardHidden):
		return utils.SendError(c, fiber.StatusForbidden, "scoreboard is not visible")
	default:
		h.logger.Error().Err(err).Str("contest", c.Params("key")).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
