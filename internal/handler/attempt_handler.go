package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aulahub/exam-go-api/internal/dto"
	"github.com/aulahub/exam-go-api/internal/service"
	"github.com/aulahub/exam-go-api/internal/utils"
)

// AttemptHandler wires the attempt lifecycle HTTP routes, both the student
// surface (start, record, submit, view) and the grading surface.
type AttemptHandler struct {
	attempts service.AttemptService
	grading  service.GradingService
	logger   zerolog.Logger
}

// NewAttemptHandler constructs the handler.
func NewAttemptHandler(attempts service.AttemptService, grading service.GradingService, logger zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attempts: attempts,
		grading:  grading,
		logger:   logger.With().Str("component", "attempt_handler").Logger(),
	}
}

// RegisterAssessments attaches the assessment-scoped attempt endpoints.
func (h *AttemptHandler) RegisterAssessments(router fiber.Router) {
	router.Post("/:id/attempts", h.start)
	router.Get("/:id/attempts", h.listForGrading)
}

// Register attaches the attempt-scoped endpoints.
func (h *AttemptHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Put("/:id/answers/:questionID", h.recordAnswer)
	router.Post("/:id/submit", h.submit)
	router.Post("/:id/answers/:answerID/grade", h.gradeAnswer)
	router.Post("/:id/publish", h.publishResults)
}

func (h *AttemptHandler) start(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempt, err := h.attempts.Start(c.Context(), assessmentID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	if attempt.Resumed {
		return utils.SendSuccess(c, "attempt resumed", attempt)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt started", attempt)
}

func (h *AttemptHandler) recordAnswer(c *fiber.Ctx) error {
	attemptID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	questionID, err := parseUintParam(c, "questionID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RecordAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.attempts.RecordAnswer(c.Context(), attemptID, questionID, payload, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer recorded", fiber.Map{"attempt_id": attemptID, "question_id": questionID})
}

func (h *AttemptHandler) submit(c *fiber.Ctx) error {
	attemptID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.attempts.Submit(c.Context(), attemptID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempt submitted", result)
}

func (h *AttemptHandler) get(c *fiber.Ctx) error {
	attemptID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempt, err := h.attempts.Get(c.Context(), attemptID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempt retrieved", attempt)
}

func (h *AttemptHandler) listForGrading(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempts, err := h.grading.ListAttempts(c.Context(), assessmentID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempts retrieved", attempts)
}

func (h *AttemptHandler) gradeAnswer(c *fiber.Ctx) error {
	attemptID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	answerID, err := parseUintParam(c, "answerID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	answer, err := h.grading.GradeAnswer(c.Context(), attemptID, answerID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer graded", answer)
}

func (h *AttemptHandler) publishResults(c *fiber.Ctx) error {
	attemptID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.grading.PublishResults(c.Context(), attemptID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "results published", result)
}

func (h *AttemptHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "attempt not found")
	case errors.Is(err, service.ErrQuestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "question not found")
	case errors.Is(err, service.ErrAnswerNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "answer not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrAttemptNotActive),
		errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, service.ErrAttemptNotSubmitted),
		errors.Is(err, service.ErrPendingManualGrades),
		errors.Is(err, service.ErrDuplicateAttempt):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAssessmentNotPublished),
		errors.Is(err, service.ErrAssessmentNotOpen),
		errors.Is(err, service.ErrAttemptsExhausted),
		errors.Is(err, service.ErrNoQuestionsAvailable),
		errors.Is(err, service.ErrQuestionNotInAttempt),
		errors.Is(err, service.ErrScoreExceedsMaxWeight):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *AttemptHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
