package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/clhstestify/online-judge/internal/dto"
	"github.com/clhstestify/online-judge/internal/handler"
	"github.com/clhstestify/online-judge/internal/service"
)

type mockViolationService struct {
	status  dto.ViolationStatusResponse
	err     error
	reports int
}

func (m *mockViolationService) Report(_ context.Context, _ uint) (dto.ViolationStatusResponse, error) {
	m.reports++
	if m.err != nil {
		return dto.ViolationStatusResponse{}, m.err
	}
	return m.status, nil
}

func (m *mockViolationService) Status(_ context.Context, _ uint) (dto.ViolationStatusResponse, error) {
	if m.err != nil {
		return dto.ViolationStatusResponse{}, m.err
	}
	return m.status, nil
}

func newViolationApp(svc service.ViolationService) *fiber.App {
	app := fiber.New()
	handler.NewViolationHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/participations"))
	return app
}

func TestViolationHandlerReport(t *testing.T) {
	svc := &mockViolationService{status: dto.ViolationStatusResponse{ViolationCount: 5, Locked: true, Threshold: 5}}
	app := newViolationApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/participations/3/violations", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, svc.reports)

	var response struct {
		Success bool                        `json:"success"`
		Data    dto.ViolationStatusResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Data.Locked)
	require.Equal(t, 5, response.Data.ViolationCount)
}

func TestViolationHandlerNotFound(t *testing.T) {
	svc := &mockViolationService{err: service.ErrParticipationNotFound}
	app := newViolationApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/participations/3/violations", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
