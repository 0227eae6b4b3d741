package dto

import (
	"time"

	"github.com/aulahub/exam-go-api/internal/models"
)

// AssessmentCreateRequest describes the payload for creating an assessment definition.
type AssessmentCreateRequest struct {
	Title            string     `json:"title" validate:"required,min=3,max=255"`
	Description      string     `json:"description"`
	SectionID        *uint      `json:"section_id" validate:"omitempty,gt=0"`
	MinPassMark      float64    `json:"min_pass_mark" validate:"gte=0,lte=10"`
	OpensAt          *time.Time `json:"opens_at"`
	ClosesAt         *time.Time `json:"closes_at"`
	DurationMinutes  int        `json:"duration_minutes" validate:"required,gt=0"`
	MaxAttempts      int        `json:"max_attempts" validate:"required,gt=0"`
	QuestionsToShow  int        `json:"questions_to_show" validate:"required,gt=0"`
	ShuffleQuestions bool       `json:"shuffle_questions"`
	RevealAnswers    bool       `json:"reveal_answers"`
}

// AssessmentPatch carries partial updates as optional new values. Nil fields
// are left untouched; every field is applied through the same fixed update
// path, never through dynamically assembled SQL.
type AssessmentPatch struct {
	Title            *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description      *string    `json:"description"`
	SectionID        *uint      `json:"section_id" validate:"omitempty,gt=0"`
	MinPassMark      *float64   `json:"min_pass_mark" validate:"omitempty,gte=0,lte=10"`
	OpensAt          *time.Time `json:"opens_at"`
	ClosesAt         *time.Time `json:"closes_at"`
	DurationMinutes  *int       `json:"duration_minutes" validate:"omitempty,gt=0"`
	MaxAttempts      *int       `json:"max_attempts" validate:"omitempty,gt=0"`
	QuestionsToShow  *int       `json:"questions_to_show" validate:"omitempty,gt=0"`
	ShuffleQuestions *bool      `json:"shuffle_questions"`
	RevealAnswers    *bool      `json:"reveal_answers"`
}

// Apply copies the non-nil patch fields onto the model.
func (p AssessmentPatch) Apply(assessment *models.Assessment) {
	if p.Title != nil {
		assessment.Title = *p.Title
	}
	if p.Description != nil {
		assessment.Description = *p.Description
	}
	if p.SectionID != nil {
		assessment.SectionID = p.SectionID
	}
	if p.MinPassMark != nil {
		assessment.MinPassMark = *p.MinPassMark
	}
	if p.OpensAt != nil {
		assessment.OpensAt = p.OpensAt
	}
	if p.ClosesAt != nil {
		assessment.ClosesAt = p.ClosesAt
	}
	if p.DurationMinutes != nil {
		assessment.DurationMinutes = *p.DurationMinutes
	}
	if p.MaxAttempts != nil {
		assessment.MaxAttempts = *p.MaxAttempts
	}
	if p.QuestionsToShow != nil {
		assessment.QuestionsToShow = *p.QuestionsToShow
	}
	if p.ShuffleQuestions != nil {
		assessment.ShuffleQuestions = *p.ShuffleQuestions
	}
	if p.RevealAnswers != nil {
		assessment.RevealAnswers = *p.RevealAnswers
	}
}

// AssessmentResponse is returned to API clients when viewing assessments.
type AssessmentResponse struct {
	ID               uint       `json:"id"`
	RoomID           uint       `json:"room_id"`
	SectionID        *uint      `json:"section_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	MinPassMark      float64    `json:"min_pass_mark"`
	OpensAt          *time.Time `json:"opens_at"`
	ClosesAt         *time.Time `json:"closes_at"`
	DurationMinutes  int        `json:"duration_minutes"`
	MaxAttempts      int        `json:"max_attempts"`
	QuestionsToShow  int        `json:"questions_to_show"`
	ShuffleQuestions bool       `json:"shuffle_questions"`
	RevealAnswers    bool       `json:"reveal_answers"`
	Status           string     `json:"status"`
	QuestionCount    int        `json:"question_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewAssessmentResponse converts an Assessment model into a DTO.
func NewAssessmentResponse(model models.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID:               model.ID,
		RoomID:           model.RoomID,
		SectionID:        model.SectionID,
		Title:            model.Title,
		Description:      model.Description,
		MinPassMark:      model.MinPassMark,
		OpensAt:          model.OpensAt,
		ClosesAt:         model.ClosesAt,
		DurationMinutes:  model.DurationMinutes,
		MaxAttempts:      model.MaxAttempts,
		QuestionsToShow:  model.QuestionsToShow,
		ShuffleQuestions: model.ShuffleQuestions,
		RevealAnswers:    model.RevealAnswers,
		Status:           model.Status,
		QuestionCount:    len(model.Questions),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewAssessmentResponseSlice converts assessment models into DTOs.
func NewAssessmentResponseSlice(items []models.Assessment) []AssessmentResponse {
	responses := make([]AssessmentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAssessmentResponse(item))
	}

	return responses
}
