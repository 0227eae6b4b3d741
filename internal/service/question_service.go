package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aulahub/exam-go-api/internal/dto"
	"github.com/aulahub/exam-go-api/internal/models"
	"github.com/aulahub/exam-go-api/internal/repository"
)

// QuestionService manages the question bank. Every mutation is rejected once
// the owning assessment has a settled attempt, keeping frozen snapshots
// reproducible and comparable across students.
type QuestionService interface {
	Add(ctx context.Context, assessmentID uint, payload dto.QuestionCreateRequest, actor Actor) (dto.QuestionResponse, error)
	Patch(ctx context.Context, questionID uint, payload dto.QuestionPatch, actor Actor) (dto.QuestionResponse, error)
	Delete(ctx context.Context, questionID uint, actor Actor) error
	Reorder(ctx context.Context, assessmentID uint, payload dto.QuestionReorderRequest, actor Actor) error
	ListByAssessment(ctx context.Context, assessmentID uint, actor Actor) ([]dto.QuestionResponse, error)
}

type questionService struct {
	questions   repository.QuestionRepository
	assessments repository.AssessmentRepository
	attempts    repository.AttemptRepository
	access      RoomAccessChecker
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewQuestionService constructs the question bank service.
func NewQuestionService(
	questions repository.QuestionRepository,
	assessments repository.AssessmentRepository,
	attempts repository.AttemptRepository,
	access RoomAccessChecker,
	validate *validator.Validate,
	logger zerolog.Logger,
) QuestionService {
	return &questionService{
		questions:   questions,
		assessments: assessments,
		attempts:    attempts,
		access:      access,
		validator:   validate,
		logger:      logger.With().Str("component", "question_service").Logger(),
	}
}

func (s *questionService) Add(ctx context.Context, assessmentID uint, payload dto.QuestionCreateRequest, actor Actor) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.requireUnlockedBank(ctx, assessmentID, actor); err != nil {
		return dto.QuestionResponse{}, err
	}

	question := models.Question{
		AssessmentID: assessmentID,
		Kind:         payload.Kind,
		Prompt:       payload.Prompt,
		Weight:       payload.Weight,
		Position:     payload.Position,
		BoolAnswer:   payload.BoolAnswer,
	}
	for i, option := range payload.Options {
		question.Options = append(question.Options, models.Option{
			Text:      option.Text,
			IsCorrect: option.IsCorrect,
			Position:  i,
		})
	}

	if err := validateAnswerKey(question); err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().
		Uint("assessment_id", assessmentID).
		Uint("question_id", question.ID).
		Str("kind", question.Kind).
		Msg("question added to bank")

	return dto.NewQuestionResponse(question, true), nil
}

func (s *questionService) Patch(ctx context.Context, questionID uint, payload dto.QuestionPatch, actor Actor) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}

	if err := s.requireUnlockedBank(ctx, question.AssessmentID, actor); err != nil {
		return dto.QuestionResponse{}, err
	}

	if payload.Prompt != nil {
		question.Prompt = *payload.Prompt
	}
	if payload.Weight != nil {
		question.Weight = *payload.Weight
	}
	if payload.Position != nil {
		question.Position = *payload.Position
	}
	if payload.BoolAnswer != nil {
		question.BoolAnswer = payload.BoolAnswer
	}

	replacement := question.Options
	if payload.Options != nil {
		replacement = make([]models.Option, 0, len(*payload.Options))
		for i, option := range *payload.Options {
			replacement = append(replacement, models.Option{
				QuestionID: question.ID,
				Text:       option.Text,
				IsCorrect:  option.IsCorrect,
				Position:   i,
			})
		}
	}

	check := question
	check.Options = replacement
	if err := validateAnswerKey(check); err != nil {
		return dto.QuestionResponse{}, err
	}

	if payload.Options != nil {
		if err := s.questions.ReplaceOptions(ctx, question.ID, replacement); err != nil {
			return dto.QuestionResponse{}, err
		}
		question.Options = nil
	}

	if err := s.questions.Update(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	updated, err := s.questions.GetByID(ctx, question.ID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	return dto.NewQuestionResponse(updated, true), nil
}

func (s *questionService) Delete(ctx context.Context, questionID uint, actor Actor) error {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}

	if err := s.requireUnlockedBank(ctx, question.AssessmentID, actor); err != nil {
		return err
	}

	return s.questions.Delete(ctx, questionID)
}

func (s *questionService) Reorder(ctx context.Context, assessmentID uint, payload dto.QuestionReorderRequest, actor Actor) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if err := s.requireUnlockedBank(ctx, assessmentID, actor); err != nil {
		return err
	}

	orders := make([]repository.QuestionOrder, 0, len(payload.Orders))
	for _, entry := range payload.Orders {
		orders = append(orders, repository.QuestionOrder{QuestionID: entry.QuestionID, Position: entry.Position})
	}

	if err := s.questions.Reorder(ctx, assessmentID, orders); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}

	return nil
}

func (s *questionService) ListByAssessment(ctx context.Context, assessmentID uint, actor Actor) ([]dto.QuestionResponse, error) {
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

	questions, err := s.questions.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewQuestionResponseSlice(questions, true), nil
}

// requireUnlockedBank authorizes the teacher and enforces the bank mutation
// guard: one settled attempt freezes the bank for good.
func (s *questionService) requireUnlockedBank(ctx context.Context, assessmentID uint, actor Actor) error {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentNotFound
		}
		return err
	}

	if err := s.requireTeacher(ctx, assessment.RoomID, actor); err != nil {
		return err
	}

	settled, err := s.attempts.CountSettled(ctx, assessmentID)
	if err != nil {
		return err
	}
	if settled > 0 {
		return ErrAssessmentLocked
	}

	return nil
}

func (s *questionService) requireTeacher(ctx context.Context, roomID uint, actor Actor) error {
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

// validateAnswerKey enforces the kind-specific key invariants: choice needs
// at least two options with one correct, plain boolean needs its key, manual
// kinds carry no machine-checkable key at all.
func validateAnswerKey(question models.Question) error {
	switch question.Kind {
	case models.QuestionKindChoice:
		if len(question.Options) < 2 {
			return ErrInvalidOptionSet
		}
		correct := 0
		for _, option := range question.Options {
			if option.IsCorrect {
				correct++
			}
		}
		if correct == 0 {
			return ErrInvalidOptionSet
		}
	case models.QuestionKindBoolean:
		if question.BoolAnswer == nil {
			return ErrMissingAnswerKey
		}
	}

	return nil
}
