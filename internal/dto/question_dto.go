package dto

import "github.com/aulahub/exam-go-api/internal/models"

// OptionRequest describes one option of a choice question being authored.
type OptionRequest struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionCreateRequest describes the payload for adding a bank question.
type QuestionCreateRequest struct {
	Kind       string          `json:"kind" validate:"required,oneof=choice boolean justified_boolean free_response"`
	Prompt     string          `json:"prompt" validate:"required"`
	Weight     float64         `json:"weight" validate:"required,gt=0"`
	Position   int             `json:"position" validate:"gte=0"`
	BoolAnswer *bool           `json:"bool_answer"`
	Options    []OptionRequest `json:"options" validate:"omitempty,dive"`
}

// QuestionPatch carries partial updates for a bank question. A non-nil
// Options slice replaces the full option set.
type QuestionPatch struct {
	Prompt     *string          `json:"prompt" validate:"omitempty,min=1"`
	Weight     *float64         `json:"weight" validate:"omitempty,gt=0"`
	Position   *int             `json:"position" validate:"omitempty,gte=0"`
	BoolAnswer *bool            `json:"bool_answer"`
	Options    *[]OptionRequest `json:"options" validate:"omitempty,dive"`
}

// QuestionOrderEntry pairs a question id with its new position.
type QuestionOrderEntry struct {
	QuestionID uint `json:"question_id" validate:"required,gt=0"`
	Position   int  `json:"position" validate:"gte=0"`
}

// QuestionReorderRequest describes an atomic batch reorder of the bank.
type QuestionReorderRequest struct {
	Orders []QuestionOrderEntry `json:"orders" validate:"required,min=1,dive"`
}

// OptionResponse serializes an option. The correctness flag is only populated
// when the caller is allowed to see the answer key.
type OptionResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	Position  int    `json:"position"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionResponse serializes a bank question.
type QuestionResponse struct {
	ID         uint             `json:"id"`
	Kind       string           `json:"kind"`
	Prompt     string           `json:"prompt"`
	Weight     float64          `json:"weight"`
	Position   int              `json:"position"`
	BoolAnswer *bool            `json:"bool_answer,omitempty"`
	Options    []OptionResponse `json:"options,omitempty"`
}

// NewQuestionResponse converts a Question model into a DTO. When revealKey is
// false every answer-key field (option correctness, boolean key) is stripped.
func NewQuestionResponse(model models.Question, revealKey bool) QuestionResponse {
	response := QuestionResponse{
		ID:       model.ID,
		Kind:     model.Kind,
		Prompt:   model.Prompt,
		Weight:   model.Weight,
		Position: model.Position,
	}

	if revealKey {
		response.BoolAnswer = model.BoolAnswer
	}

	for _, option := range model.Options {
		optionResponse := OptionResponse{
			ID:       option.ID,
			Text:     option.Text,
			Position: option.Position,
		}
		if revealKey {
			flag := option.IsCorrect
			optionResponse.IsCorrect = &flag
		}
		response.Options = append(response.Options, optionResponse)
	}

	return response
}

// NewQuestionResponseSlice converts question models into DTOs.
func NewQuestionResponseSlice(items []models.Question, revealKey bool) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewQuestionResponse(item, revealKey))
	}

	return responses
}
