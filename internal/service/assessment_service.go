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

// AssessmentService manages assessment definitions and their lifecycle
// (draft → published → closed). Definition changes are blocked once any
// attempt has settled, the same guard that freezes the question bank.
type AssessmentService interface {
	Create(ctx context.Context, roomID uint, payload dto.AssessmentCreateRequest, actor Actor) (dto.AssessmentResponse, error)
	Get(ctx context.Context, id uint, actor Actor) (dto.AssessmentResponse, error)
	ListByRoom(ctx context.Context, roomID uint, actor Actor) ([]dto.AssessmentResponse, error)
	Patch(ctx context.Context, id uint, payload dto.AssessmentPatch, actor Actor) (dto.AssessmentResponse, error)
	Publish(ctx context.Context, id uint, actor Actor) (dto.AssessmentResponse, error)
	Close(ctx context.Context, id uint, actor Actor) (dto.AssessmentResponse, error)
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	attempts    repository.AttemptRepository
	access      RoomAccessChecker
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssessmentService constructs the assessment service.
func NewAssessmentService(
	assessments repository.AssessmentRepository,
	attempts repository.AttemptRepository,
	access RoomAccessChecker,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssessmentService {
	return &assessmentService{
		assessments: assessments,
		attempts:    attempts,
		access:      access,
		validator:   validate,
		logger:      logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) Create(ctx context.Context, roomID uint, payload dto.AssessmentCreateRequest, actor Actor) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	if err := s.requireTeacher(ctx, roomID, actor); err != nil {
		return dto.AssessmentResponse{}, err
	}

	assessment := models.Assessment{
		RoomID:           roomID,
		SectionID:        payload.SectionID,
		Title:            payload.Title,
		Description:      payload.Description,
		MinPassMark:      payload.MinPassMark,
		OpensAt:          payload.OpensAt,
		ClosesAt:         payload.ClosesAt,
		DurationMinutes:  payload.DurationMinutes,
		MaxAttempts:      payload.MaxAttempts,
		QuestionsToShow:  payload.QuestionsToShow,
		ShuffleQuestions: payload.ShuffleQuestions,
		RevealAnswers:    payload.RevealAnswers,
		Status:           models.AssessmentStatusDraft,
		CreatedBy:        actor.ID,
	}

	if err := s.assessments.Create(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().
		Uint("room_id", roomID).
		Uint("assessment_id", assessment.ID).
		Msg("assessment created")

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Get(ctx context.Context, id uint, actor Actor) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetWithBank(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	role := RoleStudent
	if actor.IsTeacher() {
		role = RoleTeacher
	}
	allowed, err := s.access.IsAuthorized(ctx, assessment.RoomID, actor.ID, role)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	if !allowed {
		return dto.AssessmentResponse{}, ErrForbidden
	}

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) ListByRoom(ctx context.Context, roomID uint, actor Actor) ([]dto.AssessmentResponse, error) {
	role := RoleStudent
	if actor.IsTeacher() {
		role = RoleTeacher
	}
	allowed, err := s.access.IsAuthorized(ctx, roomID, actor.ID, role)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	assessments, err := s.assessments.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssessmentResponseSlice(assessments), nil
}

// Patch applies a partial update through the fixed patch path. Rejected once
// any attempt settled.
func (s *assessmentService) Patch(ctx context.Context, id uint, payload dto.AssessmentPatch, actor Actor) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	assessment, err := s.loadForMutation(ctx, id, actor)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	payload.Apply(&assessment)

	if err := s.assessments.Update(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Publish(ctx context.Context, id uint, actor Actor) (dto.AssessmentResponse, error) {
	assessment, err := s.loadForMutation(ctx, id, actor)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	if assessment.Status != models.AssessmentStatusDraft {
		return dto.AssessmentResponse{}, ErrInvalidStatusChange
	}

	assessment.Status = models.AssessmentStatusPublished
	if err := s.assessments.Update(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().Uint("assessment_id", id).Msg("assessment published")

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Close(ctx context.Context, id uint, actor Actor) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if err := s.requireTeacher(ctx, assessment.RoomID, actor); err != nil {
		return dto.AssessmentResponse{}, err
	}

	if assessment.Status != models.AssessmentStatusPublished {
		return dto.AssessmentResponse{}, ErrInvalidStatusChange
	}

	// Closing stays possible after attempts settle; it only shuts the window.
	assessment.Status = models.AssessmentStatusClosed
	if err := s.assessments.Update(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().Uint("assessment_id", id).Msg("assessment closed")

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) loadForMutation(ctx context.Context, id uint, actor Actor) (models.Assessment, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assessment{}, ErrAssessmentNotFound
		}
		return models.Assessment{}, err
	}

	if err := s.requireTeacher(ctx, assessment.RoomID, actor); err != nil {
		return models.Assessment{}, err
	}

	settled, err := s.attempts.CountSettled(ctx, id)
	if err != nil {
		return models.Assessment{}, err
	}
	if settled > 0 {
		return models.Assessment{}, ErrAssessmentLocked
	}

	return assessment, nil
}

func (s *assessmentService) requireTeacher(ctx context.Context, roomID uint, actor Actor) error {
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
