package dto

import (
	"time"

	"github.com/aulahub/exam-go-api/internal/models"
)

// StartAttemptResponse is returned when an attempt is started (or an existing
// in-progress attempt is resumed after a duplicate-start race).
type StartAttemptResponse struct {
	AttemptID          uint       `json:"attempt_id"`
	AttemptNumber      int        `json:"attempt_number"`
	TotalWeight        float64    `json:"total_weight"`
	StartedAt          time.Time  `json:"started_at"`
	MaxDurationMinutes int        `json:"max_duration_minutes"`
	ClosesAt           *time.Time `json:"closes_at"`
	Resumed            bool       `json:"resumed"`
}

// RecordAnswerRequest carries the kind-appropriate payload for one question.
// The full set of selected option ids replaces any prior selection.
type RecordAnswerRequest struct {
	TextBody          string `json:"text_body"`
	SelectedOptionID  *uint  `json:"selected_option_id" validate:"omitempty,gt=0"`
	SelectedOptionIDs []uint `json:"selected_option_ids" validate:"omitempty,dive,gt=0"`
	BoolValue         *bool  `json:"bool_value"`
	Justification     string `json:"justification"`
}

// SubmitAttemptResponse reports the provisional (or final) outcome of submission.
type SubmitAttemptResponse struct {
	State                string   `json:"state"`
	ObtainedWeight       float64  `json:"obtained_weight"`
	TotalWeight          float64  `json:"total_weight"`
	Mark                 *float64 `json:"mark"`
	RequiresManualReview bool     `json:"requires_manual_review"`
}

// GradeAnswerRequest carries a manual grade for one answer.
type GradeAnswerRequest struct {
	ObtainedWeight float64 `json:"obtained_weight" validate:"gte=0"`
	Feedback       string  `json:"feedback"`
}

// PublishResultsResponse reports the reconciled final outcome.
type PublishResultsResponse struct {
	ObtainedWeight float64 `json:"obtained_weight"`
	Mark           float64 `json:"mark"`
}

// AnswerResponse serializes one answer of an attempt.
type AnswerResponse struct {
	ID                uint       `json:"id"`
	QuestionID        uint       `json:"question_id"`
	TextBody          string     `json:"text_body,omitempty"`
	SelectedOptionIDs []uint     `json:"selected_option_ids,omitempty"`
	BoolValue         *bool      `json:"bool_value,omitempty"`
	Justification     string     `json:"justification,omitempty"`
	ObtainedWeight    *float64   `json:"obtained_weight"`
	IsCorrect         *bool      `json:"is_correct"`
	Feedback          string     `json:"feedback,omitempty"`
	GradedAt          *time.Time `json:"graded_at"`
}

// AttemptResponse serializes an attempt with its frozen question subset.
type AttemptResponse struct {
	ID              uint               `json:"id"`
	AssessmentID    uint               `json:"assessment_id"`
	StudentID       uint               `json:"student_id"`
	Number          int                `json:"number"`
	Status          string             `json:"status"`
	StartedAt       time.Time          `json:"started_at"`
	SubmittedAt     *time.Time         `json:"submitted_at"`
	GradedAt        *time.Time         `json:"graded_at"`
	TimeUsedMinutes int                `json:"time_used_minutes"`
	TotalWeight     float64            `json:"total_weight"`
	ObtainedWeight  *float64           `json:"obtained_weight"`
	Mark            *float64           `json:"mark"`
	Questions       []QuestionResponse `json:"questions"`
	Answers         []AnswerResponse   `json:"answers"`
}

// NewAnswerResponse converts an Answer model into a DTO. Grading fields are
// hidden until the attempt has results the caller may see.
func NewAnswerResponse(model models.Answer, showGrades bool) AnswerResponse {
	response := AnswerResponse{
		ID:                model.ID,
		QuestionID:        model.QuestionID,
		TextBody:          model.TextBody,
		SelectedOptionIDs: model.SelectedSet(),
		BoolValue:         model.BoolValue,
		Justification:     model.Justification,
	}

	if showGrades {
		response.ObtainedWeight = model.ObtainedWeight
		response.IsCorrect = model.IsCorrect
		response.Feedback = model.Feedback
		response.GradedAt = model.GradedAt
	}

	return response
}

// NewAttemptResponse converts an attempt and its snapshot questions into a
// DTO. Questions arrive in the frozen display order; revealKey controls
// whether answer-key fields survive serialization, showGrades whether
// per-answer scores do.
func NewAttemptResponse(model models.Attempt, questions []models.Question, revealKey, showGrades bool) AttemptResponse {
	response := AttemptResponse{
		ID:              model.ID,
		AssessmentID:    model.AssessmentID,
		StudentID:       model.StudentID,
		Number:          model.Number,
		Status:          model.Status,
		StartedAt:       model.StartedAt,
		SubmittedAt:     model.SubmittedAt,
		GradedAt:        model.GradedAt,
		TimeUsedMinutes: model.TimeUsedMinutes,
		TotalWeight:     model.TotalWeight,
		Questions:       NewQuestionResponseSlice(questions, revealKey),
	}

	if showGrades {
		response.ObtainedWeight = model.ObtainedWeight
		response.Mark = model.Mark
	}

	for _, answer := range model.Answers {
		response.Answers = append(response.Answers, NewAnswerResponse(answer, showGrades))
	}

	return response
}

// NewAttemptResponseSlice converts attempt models into DTOs without question detail.
func NewAttemptResponseSlice(items []models.Attempt, showGrades bool) []AttemptResponse {
	responses := make([]AttemptResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAttemptResponse(item, nil, false, showGrades))
	}

	return responses
}
