package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Answer holds a student's response to one question of one attempt, unique per
// (attempt, question). Graded fields are written only by the auto-grader or an
// authorized manual grader.
type Answer struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	AttemptID         uint           `gorm:"not null;uniqueIndex:idx_answer_attempt_question,priority:1" json:"attempt_id"`
	QuestionID        uint           `gorm:"not null;uniqueIndex:idx_answer_attempt_question,priority:2" json:"question_id"`
	TextBody          string         `gorm:"type:text" json:"text_body,omitempty"`
	SelectedOptionID  *uint          `json:"selected_option_id,omitempty"`
	SelectedOptionIDs datatypes.JSON `json:"selected_option_ids,omitempty"`
	BoolValue         *bool          `json:"bool_value,omitempty"`
	Justification     string         `gorm:"type:text" json:"justification,omitempty"`
	ObtainedWeight    *float64       `json:"obtained_weight"`
	IsCorrect         *bool          `json:"is_correct"`
	Feedback          string         `gorm:"type:text" json:"feedback,omitempty"`
	GradedAt          *time.Time     `json:"graded_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// SelectedSet decodes the multi-select payload, falling back to the legacy
// single selected-option field when the set is empty.
func (a Answer) SelectedSet() []uint {
	if len(a.SelectedOptionIDs) > 0 {
		var ids []uint
		if err := json.Unmarshal(a.SelectedOptionIDs, &ids); err == nil && len(ids) > 0 {
			return ids
		}
	}
	if a.SelectedOptionID != nil {
		return []uint{*a.SelectedOptionID}
	}
	return nil
}

// IsGraded reports whether the answer carries an obtained weight.
func (a Answer) IsGraded() bool {
	return a.ObtainedWeight != nil
}
