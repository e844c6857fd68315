package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
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

type mockExamService struct {
	sheet     dto.ExamSheetResponse
	result    dto.ParticipationResultResponse
	err       error
	lastSave  dto.ExamSheetRequest
	saveCalls int
}

func (m *mockExamService) Sheet(_ context.Context, _ uint) (dto.ExamSheetResponse, error) {
	if m.err != nil {
		return dto.ExamSheetResponse{}, m.err
	}
	return m.sheet, nil
}

func (m *mockExamService) SaveSheet(_ context.Context, _ uint, req dto.ExamSheetRequest) (dto.ParticipationResultResponse, error) {
	m.saveCalls++
	m.lastSave = req
	if m.err != nil {
		return dto.ParticipationResultResponse{}, m.err
	}
	return m.result, nil
}

func decodeResponse(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func newExamApp(svc service.ExamService) *fiber.App {
	app := fiber.New()
	handler.NewExamHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/participations"))
	return app
}

func TestExamHandlerSaveSheetSuccess(t *testing.T) {
	svc := &mockExamService{result: dto.ParticipationResultResponse{ParticipationID: 7, Score: 8.5}}
	app := newExamApp(svc)

	text := "42"
	payload := dto.ExamSheetRequest{Answers: []dto.ExamAnswer{{QuestionID: 3, Text: &text}}}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/participations/7/sheet", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                            `json:"success"`
		Data    dto.ParticipationResultResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.InDelta(t, 8.5, response.Data.Score, 1e-9)
	require.Equal(t, 1, svc.saveCalls)
	require.Len(t, svc.lastSave.Answers, 1)
}

func TestExamHandlerSaveSheetRejectsEmptyAnswers(t *testing.T) {
	svc := &mockExamService{}
	app := newExamApp(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/participations/7/sheet", bytes.NewReader([]byte(`{"answers":[]}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.saveCalls)
}

func TestExamHandlerSaveSheetLocked(t *testing.T) {
	svc := &mockExamService{err: service.ErrParticipationLocked}
	app := newExamApp(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/participations/7/sheet", bytes.NewReader([]byte(`{"answers":[{"question_id":1,"text":"x"}]}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestExamHandlerSheetNotFound(t *testing.T) {
	svc := &mockExamService{err: service.ErrParticipationNotFound}
	app := newExamApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/participations/99/sheet", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestExamHandlerInvalidIdentifier(t *testing.T) {
	svc := &mockExamService{}
	app := newExamApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/participations/abc/sheet", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
