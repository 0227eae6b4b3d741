package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/aulahub/exam-go-api/internal/dto"
	"github.com/aulahub/exam-go-api/internal/grading"
	"github.com/aulahub/exam-go-api/internal/models"
	"github.com/aulahub/exam-go-api/internal/observability"
	"github.com/aulahub/exam-go-api/internal/repository"
)

// GradingService covers the manual half of the lifecycle: per-answer grading
// by a teacher and the reconciliation that publishes final results.
type GradingService interface {
	GradeAnswer(ctx context.Context, attemptID, answerID uint, payload dto.GradeAnswerRequest, actor Actor) (dto.AnswerResponse, error)
	PublishResults(ctx context.Context, attemptID uint, actor Actor) (dto.PublishResultsResponse, error)
	ListAttempts(ctx context.Context, assessmentID uint, actor Actor) ([]dto.AttemptResponse, error)
}

type gradingService struct {
	attempts    repository.AttemptRepository
	assessments repository.AssessmentRepository
	questions   repository.QuestionRepository
	answers     repository.AnswerRepository
	access      RoomAccessChecker
	events      EventSink
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(
	attempts repository.AttemptRepository,
	assessments repository.AssessmentRepository,
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	access RoomAccessChecker,
	events EventSink,
	validate *validator.Validate,
	logger zerolog.Logger,
) GradingService {
	if events == nil {
		events = NoopEventSink{}
	}

	return &gradingService{
		attempts:    attempts,
		assessments: assessments,
		questions:   questions,
		answers:     answers,
		access:      access,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/aulahub/exam-go-api/internal/service/grading"),
		now:         time.Now,
	}
}

// GradeAnswer assigns a manual score to one answer of a submitted attempt.
// The score may not exceed the question's weight; correctness is derived as
// obtainedWeight > 0.
func (s *gradingService) GradeAnswer(ctx context.Context, attemptID, answerID uint, payload dto.GradeAnswerRequest, actor Actor) (dto.AnswerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.grade_answer", trace.WithAttributes(
		attribute.Int64("grading.attempt_id", int64(attemptID)),
		attribute.Int64("grading.answer_id", int64(answerID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AnswerResponse{}, err
	}

	attempt, _, err := s.authorizeGrader(ctx, attemptID, actor)
	if err != nil {
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}

	if attempt.Status != models.AttemptStatusSubmitted {
		return dto.AnswerResponse{}, ErrAttemptNotSubmitted
	}

	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnswerResponse{}, ErrAnswerNotFound
		}
		return dto.AnswerResponse{}, err
	}
	if answer.AttemptID != attemptID {
		return dto.AnswerResponse{}, ErrAnswerNotFound
	}

	question, err := s.questions.GetByID(ctx, answer.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnswerResponse{}, ErrQuestionNotFound
		}
		return dto.AnswerResponse{}, err
	}

	if payload.ObtainedWeight > question.Weight+1e-9 {
		span.SetStatus(codes.Error, "score_exceeds_weight")
		return dto.AnswerResponse{}, ErrScoreExceedsMaxWeight
	}

	obtained := payload.ObtainedWeight
	correct := obtained > 0
	gradedAt := s.now()

	answer.ObtainedWeight = &obtained
	answer.IsCorrect = &correct
	answer.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	answer.GradedAt = &gradedAt

	if err := s.answers.Update(ctx, &answer); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer_update_failed")
		return dto.AnswerResponse{}, err
	}

	span.SetAttributes(attribute.Float64("grading.obtained_weight", obtained))
	s.logger.Info().
		Uint("attempt_id", attemptID).
		Uint("answer_id", answerID).
		Float64("obtained_weight", obtained).
		Msg("answer graded manually")

	return dto.NewAnswerResponse(answer, true), nil
}

// PublishResults reconciles manual grades into the final mark and releases
// the attempt. Fails while any manual-kind answer still lacks a grade. The
// recomputation is idempotent: re-publishing the same answer set yields the
// same mark.
func (s *gradingService) PublishResults(ctx context.Context, attemptID uint, actor Actor) (dto.PublishResultsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.publish_results", trace.WithAttributes(
		attribute.Int64("grading.attempt_id", int64(attemptID)),
	))
	defer span.End()

	attempt, _, err := s.authorizeGrader(ctx, attemptID, actor)
	if err != nil {
		span.RecordError(err)
		return dto.PublishResultsResponse{}, err
	}

	if attempt.Status == models.AttemptStatusInProgress {
		return dto.PublishResultsResponse{}, ErrAttemptNotSubmitted
	}

	questions, err := s.questions.ListByIDs(ctx, attempt.QuestionIDs())
	if err != nil {
		return dto.PublishResultsResponse{}, err
	}
	manualKinds := make(map[uint]bool, len(questions))
	for _, question := range questions {
		manualKinds[question.ID] = question.RequiresManualGrading()
	}

	answers, err := s.answers.ListByAttempt(ctx, attemptID)
	if err != nil {
		return dto.PublishResultsResponse{}, err
	}

	obtained := 0.0
	for _, answer := range answers {
		if answer.ObtainedWeight == nil {
			if manualKinds[answer.QuestionID] {
				span.SetStatus(codes.Error, "pending_manual_grades")
				return dto.PublishResultsResponse{}, ErrPendingManualGrades
			}
			continue
		}
		obtained += *answer.ObtainedWeight
	}

	now := s.now()
	mark := grading.Mark(obtained, attempt.TotalWeight)
	attempt.ObtainedWeight = &obtained
	attempt.Mark = &mark
	if attempt.GradedAt == nil {
		attempt.GradedAt = &now
	}
	attempt.Status = models.AttemptStatusPublished

	if err := s.attempts.Update(ctx, &attempt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish_persist_failed")
		return dto.PublishResultsResponse{}, err
	}

	observability.AttemptsGraded().Inc()
	s.emit(ctx, EventResultsPublished, attempt)

	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Float64("obtained_weight", obtained).
		Float64("mark", mark).
		Msg("attempt results published")

	return dto.PublishResultsResponse{ObtainedWeight: obtained, Mark: mark}, nil
}

// ListAttempts returns every attempt of an assessment for the grading view.
func (s *gradingService) ListAttempts(ctx context.Context, assessmentID uint, actor Actor) ([]dto.AttemptResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}

	if err := s.requireTeacher(ctx, assessment.RoomID, actor); err != nil {
		return nil, err
	}

	attempts, err := s.attempts.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewAttemptResponseSlice(attempts, true), nil
}

func (s *gradingService) authorizeGrader(ctx context.Context, attemptID uint, actor Actor) (models.Attempt, models.Assessment, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Attempt{}, models.Assessment{}, ErrAttemptNotFound
		}
		return models.Attempt{}, models.Assessment{}, err
	}

	assessment, err := s.assessments.GetByID(ctx, attempt.AssessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Attempt{}, models.Assessment{}, ErrAssessmentNotFound
		}
		return models.Attempt{}, models.Assessment{}, err
	}

	if err := s.requireTeacher(ctx, assessment.RoomID, actor); err != nil {
		return models.Attempt{}, models.Assessment{}, err
	}

	return attempt, assessment, nil
}

func (s *gradingService) requireTeacher(ctx context.Context, roomID uint, actor Actor) error {
	if !actor.IsTeacher() {
		return ErrForbidden
	}

	allowed, err := s.access.IsAuthorized(ctx, roomID, actor.ID, RoleTeacher)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	return nil
}

func (s *gradingService) emit(ctx context.Context, eventType string, attempt models.Attempt) {
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
