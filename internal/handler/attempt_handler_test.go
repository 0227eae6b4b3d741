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

	"github.com/aulahub/exam-go-api/internal/dto"
	"github.com/aulahub/exam-go-api/internal/handler"
	"github.com/aulahub/exam-go-api/internal/service"
)

type mockAttemptService struct {
	lastActor service.Actor
	start     dto.StartAttemptResponse
	submit    dto.SubmitAttemptResponse
	err       error
}

func (m *mockAttemptService) Start(_ context.Context, _ uint, actor service.Actor) (dto.StartAttemptResponse, error) {
	m.lastActor = actor
	return m.start, m.err
}

func (m *mockAttemptService) RecordAnswer(_ context.Context, _, _ uint, _ dto.RecordAnswerRequest, actor service.Actor) error {
	m.lastActor = actor
	return m.err
}

func (m *mockAttemptService) Submit(_ context.Context, _ uint, actor service.Actor) (dto.SubmitAttemptResponse, error) {
	m.lastActor = actor
	return m.submit, m.err
}

func (m *mockAttemptService) Get(_ context.Context, _ uint, actor service.Actor) (dto.AttemptResponse, error) {
	m.lastActor = actor
	return dto.AttemptResponse{}, m.err
}

type mockGradingService struct {
	err error
}

func (m *mockGradingService) GradeAnswer(context.Context, uint, uint, dto.GradeAnswerRequest, service.Actor) (dto.AnswerResponse, error) {
	return dto.AnswerResponse{}, m.err
}

func (m *mockGradingService) PublishResults(context.Context, uint, service.Actor) (dto.PublishResultsResponse, error) {
	return dto.PublishResultsResponse{ObtainedWeight: 8, Mark: 8}, m.err
}

func (m *mockGradingService) ListAttempts(context.Context, uint, service.Actor) ([]dto.AttemptResponse, error) {
	return nil, m.err
}

func attemptApp(attempts *mockAttemptService, grading *mockGradingService, role string) *fiber.App {
	app := fiber.New()
	authenticated := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("acting_role", role)
		return c.Next()
	})

	h := handler.NewAttemptHandler(attempts, grading, zerolog.New(io.Discard))
	h.RegisterAssessments(authenticated.Group("/assessments"))
	h.Register(authenticated.Group("/attempts"))
	return app
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, target))
}

func TestAttemptHandler_StartCreated(t *testing.T) {
	attempts := &mockAttemptService{start: dto.StartAttemptResponse{AttemptID: 3, AttemptNumber: 1, TotalWeight: 10}}
	app := attemptApp(attempts, &mockGradingService{}, "student")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/assessments/1/attempts", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                     `json:"success"`
		Data    dto.StartAttemptResponse `json:"data"`
		Message string                   `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "attempt started", response.Message)
	require.Equal(t, uint(3), response.Data.AttemptID)
	require.Equal(t, service.Actor{ID: 7, Role: "student"}, attempts.lastActor)
}

func TestAttemptHandler_StartResumedReturnsOK(t *testing.T) {
	attempts := &mockAttemptService{start: dto.StartAttemptResponse{AttemptID: 3, Resumed: true}}
	app := attemptApp(attempts, &mockGradingService{}, "student")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/assessments/1/attempts", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAttemptHandler_RecordAnswer(t *testing.T) {
	attempts := &mockAttemptService{}
	app := attemptApp(attempts, &mockGradingService{}, "student")

	body, err := json.Marshal(dto.RecordAnswerRequest{SelectedOptionIDs: []uint{10, 11}})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/attempts/3/answers/2", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAttemptHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "attempt not found", err: service.ErrAttemptNotFound, statusCode: fiber.StatusNotFound},
		{name: "forbidden", err: service.ErrForbidden, statusCode: fiber.StatusForbidden},
		{name: "already submitted", err: service.ErrAlreadySubmitted, statusCode: fiber.StatusConflict},
		{name: "window closed", err: service.ErrAssessmentNotOpen, statusCode: fiber.StatusUnprocessableEntity},
		{name: "attempts exhausted", err: service.ErrAttemptsExhausted, statusCode: fiber.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			attempts := &mockAttemptService{err: tc.err}
			app := attemptApp(attempts, &mockGradingService{}, "student")

			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/attempts/3/submit", nil))
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestAttemptHandler_GradeAnswerMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "score exceeds weight", err: service.ErrScoreExceedsMaxWeight, statusCode: fiber.StatusUnprocessableEntity},
		{name: "pending manual grades", err: service.ErrPendingManualGrades, statusCode: fiber.StatusConflict},
		{name: "not submitted", err: service.ErrAttemptNotSubmitted, statusCode: fiber.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := attemptApp(&mockAttemptService{}, &mockGradingService{err: tc.err}, "teacher")

			body, err := json.Marshal(dto.GradeAnswerRequest{ObtainedWeight: 2})
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/attempts/3/answers/1/grade", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestAttemptHandler_PublishResults(t *testing.T) {
	app := attemptApp(&mockAttemptService{}, &mockGradingService{}, "teacher")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/attempts/3/publish", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                       `json:"success"`
		Data    dto.PublishResultsResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.InDelta(t, 8.0, response.Data.Mark, 1e-9)
}

func TestAttemptHandler_InvalidID(t *testing.T) {
	app := attemptApp(&mockAttemptService{}, &mockGradingService{}, "student")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/attempts/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
