package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aulahub/exam-go-api/internal/dto"
	"github.com/aulahub/exam-go-api/internal/grading"
	"github.com/aulahub/exam-go-api/internal/models"
	"github.com/aulahub/exam-go-api/internal/observability"
	"github.com/aulahub/exam-go-api/internal/repository"
)

// AttemptService orchestrates attempt lifecycle: assembly at start, answer
// recording while in progress, auto-grading at submission, and read access.
type AttemptService interface {
	Start(ctx context.Context, assessmentID uint, actor Actor) (dto.StartAttemptResponse, error)
	RecordAnswer(ctx context.Context, attemptID, questionID uint, payload dto.RecordAnswerRequest, actor Actor) error
	Submit(ctx context.Context, attemptID uint, actor Actor) (dto.SubmitAttemptResponse, error)
	Get(ctx context.Context, attemptID uint, actor Actor) (dto.AttemptResponse, error)
}

type attemptService struct {
	attempts    repository.AttemptRepository
	assessments repository.AssessmentRepository
	questions   repository.QuestionRepository
	answers     repository.AnswerRepository
	access      RoomAccessChecker
	events      EventSink
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
	seed        func() int64
}

// NewAttemptService constructs the attempt service.
func NewAttemptService(
	attempts repository.AttemptRepository,
	assessments repository.AssessmentRepository,
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	access RoomAccessChecker,
	events EventSink,
	validate *validator.Validate,
	logger zerolog.Logger,
) AttemptService {
	if events == nil {
		events = NoopEventSink{}
	}

	return &attemptService{
		attempts:    attempts,
		assessments: assessments,
		questions:   questions,
		answers:     answers,
		access:      access,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "attempt_service").Logger(),
		tracer:      otel.Tracer("github.com/aulahub/exam-go-api/internal/service/attempt"),
		now:         time.Now,
		seed:        func() int64 { return time.Now().UnixNano() },
	}
}

// Start assembles and creates one attempt. Eligibility checks, the attempt
// insert, and the frozen snapshot insert share a single transaction; a
// duplicate-start race resolves to the pre-existing in-progress attempt.
func (s *attemptService) Start(ctx context.Context, assessmentID uint, actor Actor) (dto.StartAttemptResponse, error) {
	assessment, err := s.assessments.GetWithBank(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StartAttemptResponse{}, ErrAssessmentNotFound
		}
		return dto.StartAttemptResponse{}, err
	}

	allowed, err := s.access.IsAuthorized(ctx, assessment.RoomID, actor.ID, RoleStudent)
	if err != nil {
		return dto.StartAttemptResponse{}, err
	}
	if !allowed {
		return dto.StartAttemptResponse{}, ErrForbidden
	}

	now := s.now()
	if assessment.Status != models.AssessmentStatusPublished {
		return dto.StartAttemptResponse{}, ErrAssessmentNotPublished
	}
	if !assessment.IsOpenAt(now) {
		return dto.StartAttemptResponse{}, ErrAssessmentNotOpen
	}
	if len(assessment.Questions) == 0 {
		return dto.StartAttemptResponse{}, ErrNoQuestionsAvailable
	}

	prior, err := s.attempts.CountByStudent(ctx, assessmentID, actor.ID)
	if err != nil {
		return dto.StartAttemptResponse{}, err
	}
	if prior >= int64(assessment.MaxAttempts) {
		return dto.StartAttemptResponse{}, ErrAttemptsExhausted
	}

	seed := s.seed()
	selected := drawQuestions(assessment.Questions, assessment.QuestionsToShow, assessment.ShuffleQuestions, seed)

	attempt := models.Attempt{
		AssessmentID: assessmentID,
		StudentID:    actor.ID,
		Number:       int(prior) + 1,
		Status:       models.AttemptStatusInProgress,
		StartedAt:    now,
		TotalWeight:  sumWeights(selected),
	}
	if assessment.ShuffleQuestions {
		attempt.ShuffleSeed = &seed
	}

	questionIDs := make([]uint, 0, len(selected))
	for _, question := range selected {
		questionIDs = append(questionIDs, question.ID)
	}

	if err := s.attempts.CreateWithSnapshot(ctx, &attempt, questionIDs); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, lookupErr := s.attempts.GetActive(ctx, assessmentID, actor.ID)
			if lookupErr != nil {
				if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
					return dto.StartAttemptResponse{}, ErrDuplicateAttempt
				}
				return dto.StartAttemptResponse{}, lookupErr
			}

			return s.startResponse(existing, assessment, true), nil
		}
		return dto.StartAttemptResponse{}, err
	}

	observability.AttemptsStarted().WithLabelValues(assessment.Status).Inc()
	s.logger.Info().
		Uint("assessment_id", assessmentID).
		Uint("student_id", actor.ID).
		Int("attempt_number", attempt.Number).
		Int("questions", len(questionIDs)).
		Msg("attempt started")

	return s.startResponse(attempt, assessment, false), nil
}

func (s *attemptService) startResponse(attempt models.Attempt, assessment models.Assessment, resumed bool) dto.StartAttemptResponse {
	return dto.StartAttemptResponse{
		AttemptID:          attempt.ID,
		AttemptNumber:      attempt.Number,
		TotalWeight:        attempt.TotalWeight,
		StartedAt:          attempt.StartedAt,
		MaxDurationMinutes: assessment.DurationMinutes,
		ClosesAt:           assessment.ClosesAt,
		Resumed:            resumed,
	}
}

// RecordAnswer upserts the student's answer for one snapshot question. The
// assessment close time is re-checked here, not only at start, so an attempt
// cannot keep receiving answers after the window shuts.
func (s *attemptService) RecordAnswer(ctx context.Context, attemptID, questionID uint, payload dto.RecordAnswerRequest, actor Actor) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttemptNotFound
		}
		return err
	}

	if attempt.StudentID != actor.ID {
		return ErrForbidden
	}
	if !attempt.IsActive() {
		return ErrAttemptNotActive
	}

	inSnapshot := false
	for _, id := range attempt.QuestionIDs() {
		if id == questionID {
			inSnapshot = true
			break
		}
	}
	if !inSnapshot {
		return ErrQuestionNotInAttempt
	}

	assessment, err := s.assessments.GetByID(ctx, attempt.AssessmentID)
	if err != nil {
		return err
	}
	if assessment.ClosesAt != nil && !s.now().Before(*assessment.ClosesAt) {
		return ErrAssessmentNotOpen
	}

	answer := models.Answer{
		AttemptID:     attemptID,
		QuestionID:    questionID,
		TextBody:      payload.TextBody,
		BoolValue:     payload.BoolValue,
		Justification: payload.Justification,
	}
	if len(payload.SelectedOptionIDs) > 0 {
		encoded, err := json.Marshal(payload.SelectedOptionIDs)
		if err != nil {
			return err
		}
		answer.SelectedOptionIDs = datatypes.JSON(encoded)
	} else if payload.SelectedOptionID != nil {
		answer.SelectedOptionID = payload.SelectedOptionID
	}

	// Overwriting resets any previous grading; weights are assigned only at
	// submission or manual-review time.
	return s.answers.Upsert(ctx, &answer)
}

// Submit freezes time used, auto-grades objective answers, and either settles
// the attempt as graded (fully objective bank) or parks it as submitted until
// manual review completes. The whole step is one atomic unit and re-enterable
// from in_progress.
func (s *attemptService) Submit(ctx context.Context, attemptID uint, actor Actor) (dto.SubmitAttemptResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attempt.submit", trace.WithAttributes(
		attribute.Int64("attempt.id", int64(attemptID)),
		attribute.Int64("attempt.student_id", int64(actor.ID)),
	))
	defer span.End()

	start := s.now()

	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitAttemptResponse{}, ErrAttemptNotFound
		}
		span.RecordError(err)
		return dto.SubmitAttemptResponse{}, err
	}

	if attempt.StudentID != actor.ID {
		return dto.SubmitAttemptResponse{}, ErrForbidden
	}
	if !attempt.IsActive() {
		return dto.SubmitAttemptResponse{}, ErrAlreadySubmitted
	}

	questions, err := s.snapshotQuestions(ctx, attempt)
	if err != nil {
		span.RecordError(err)
		return dto.SubmitAttemptResponse{}, err
	}

	answers, err := s.answers.ListByAttempt(ctx, attemptID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmitAttemptResponse{}, err
	}

	summary := grading.ScoreAttempt(questions, answers)
	graded := applyScores(answers, summary.Scores, s.now())

	now := s.now()
	elapsed := now.Sub(attempt.StartedAt)
	attempt.TimeUsedMinutes = int(math.Ceil(elapsed.Minutes()))
	if attempt.TimeUsedMinutes < 0 {
		attempt.TimeUsedMinutes = 0
	}
	attempt.SubmittedAt = &now
	obtained := summary.ObtainedWeight
	attempt.ObtainedWeight = &obtained

	if summary.RequiresManual {
		attempt.Status = models.AttemptStatusSubmitted
		attempt.Mark = nil
	} else {
		mark := grading.Mark(obtained, attempt.TotalWeight)
		attempt.Status = models.AttemptStatusGraded
		attempt.GradedAt = &now
		attempt.Mark = &mark
	}

	if err := s.attempts.FinalizeGrading(ctx, &attempt, graded); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading_persist_failed")
		return dto.SubmitAttemptResponse{}, err
	}

	observability.AttemptsSubmitted().WithLabelValues(attempt.Status).Inc()
	observability.GradingDuration().Observe(s.now().Sub(start).Seconds())

	if attempt.Status == models.AttemptStatusGraded {
		s.emit(ctx, EventAttemptGraded, attempt)
	}

	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Str("status", attempt.Status).
		Float64("obtained_weight", obtained).
		Bool("requires_manual_review", summary.RequiresManual).
		Msg("attempt submitted")

	return dto.SubmitAttemptResponse{
		State:                attempt.Status,
		ObtainedWeight:       obtained,
		TotalWeight:          attempt.TotalWeight,
		Mark:                 attempt.Mark,
		RequiresManualReview: summary.RequiresManual,
	}, nil
}

// Get returns the attempt with its frozen question subset. Answer-key fields
// are visible only to teachers with room access, or to the owning student once
// results exist and the assessment allows reveal.
func (s *attemptService) Get(ctx context.Context, attemptID uint, actor Actor) (dto.AttemptResponse, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrAttemptNotFound
		}
		return dto.AttemptResponse{}, err
	}

	assessment, err := s.assessments.GetByID(ctx, attempt.AssessmentID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	revealKey := false
	showGrades := false
	switch {
	case actor.IsTeacher():
		allowed, err := s.access.IsAuthorized(ctx, assessment.RoomID, actor.ID, RoleTeacher)
		if err != nil {
			return dto.AttemptResponse{}, err
		}
		if !allowed {
			return dto.AttemptResponse{}, ErrForbidden
		}
		revealKey = true
		showGrades = true
	case attempt.StudentID == actor.ID:
		showGrades = attempt.HasResults()
		revealKey = attempt.HasResults() && assessment.RevealAnswers
	default:
		return dto.AttemptResponse{}, ErrForbidden
	}

	questions, err := s.snapshotQuestions(ctx, attempt)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	return dto.NewAttemptResponse(attempt, questions, revealKey, showGrades), nil
}

// snapshotQuestions loads the bank rows referenced by the frozen snapshot,
// returned in the attempt's display order.
func (s *attemptService) snapshotQuestions(ctx context.Context, attempt models.Attempt) ([]models.Question, error) {
	ids := attempt.QuestionIDs()
	loaded, err := s.questions.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Question, len(loaded))
	for _, question := range loaded {
		byID[question.ID] = question
	}

	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if question, ok := byID[id]; ok {
			ordered = append(ordered, question)
		}
	}

	return ordered, nil
}

func (s *attemptService) emit(ctx context.Context, eventType string, attempt models.Attempt) {
	event := Event{
		Type:         eventType,
		AttemptID:    attempt.ID,
		AssessmentID: attempt.AssessmentID,
		StudentID:    attempt.StudentID,
		Mark:         attempt.Mark,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Uint("attempt_id", attempt.ID).Msg("failed to publish lifecycle event")
	}
}

// applyScores writes machine-assigned weights onto the recorded answer rows.
// Manual-review scores leave the row ungraded; questions with no answer row
// have nothing to persist (their zero contributes only to the sum).
func applyScores(answers []models.Answer, scores []grading.Score, gradedAt time.Time) []models.Answer {
	byQuestion := make(map[uint]grading.Score, len(scores))
	for _, score := range scores {
		byQuestion[score.QuestionID] = score
	}

	graded := make([]models.Answer, 0, len(answers))
	for _, answer := range answers {
		score, ok := byQuestion[answer.QuestionID]
		if !ok || !score.Graded() {
			graded = append(graded, answer)
			continue
		}

		answer.ObtainedWeight = score.ObtainedWeight
		answer.IsCorrect = score.IsCorrect
		at := gradedAt
		answer.GradedAt = &at
		graded = append(graded, answer)
	}

	return graded
}
