package models

import "time"

// Question is a bank item belonging to exactly one assessment. Choice questions
// carry their answer key in the options; boolean kinds carry it in BoolAnswer.
type Question struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssessmentID uint      `gorm:"not null;index" json:"assessment_id"`
	Kind         string    `gorm:"size:32;not null" json:"kind"`
	Prompt       string    `gorm:"type:text;not null" json:"prompt"`
	Weight       float64   `gorm:"not null" json:"weight"`
	Position     int       `gorm:"not null;default:0" json:"position"`
	BoolAnswer   *bool     `json:"bool_answer,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Options      []Option  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options,omitempty"`
}

const (
	// QuestionKindChoice covers single- and multi-select questions; the option set
	// with correctness flags is the answer key.
	QuestionKindChoice = "choice"
	// QuestionKindBoolean is a plain true/false question.
	QuestionKindBoolean = "boolean"
	// QuestionKindJustifiedBoolean is true/false plus a written justification and
	// is always graded by hand.
	QuestionKindJustifiedBoolean = "justified_boolean"
	// QuestionKindFreeResponse is open text, always graded by hand.
	QuestionKindFreeResponse = "free_response"
)

// RequiresManualGrading reports whether the question kind has no machine-checkable key.
func (q Question) RequiresManualGrading() bool {
	return q.Kind == QuestionKindJustifiedBoolean || q.Kind == QuestionKindFreeResponse
}

// CorrectOptionIDs returns the ids of options flagged correct, in stored order.
func (q Question) CorrectOptionIDs() []uint {
	ids := make([]uint, 0, len(q.Options))
	for _, option := range q.Options {
		if option.IsCorrect {
			ids = append(ids, option.ID)
		}
	}
	return ids
}

// Option is one selectable choice of a choice-kind question.
type Option struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct,omitempty"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
