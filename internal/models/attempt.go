package models

import "time"

// Attempt is one student's timed instance of an assessment. The question subset
// and total weight are frozen at creation and never recomputed from the live bank.
type Attempt struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	AssessmentID    uint              `gorm:"not null;uniqueIndex:idx_attempt_number,priority:1;uniqueIndex:idx_attempt_active,where:status = 'in_progress',priority:1" json:"assessment_id"`
	StudentID       uint              `gorm:"not null;uniqueIndex:idx_attempt_number,priority:2;uniqueIndex:idx_attempt_active,where:status = 'in_progress',priority:2" json:"student_id"`
	Number          int               `gorm:"not null;uniqueIndex:idx_attempt_number,priority:3" json:"number"`
	Status          string            `gorm:"size:32;not null;default:in_progress" json:"status"`
	StartedAt       time.Time         `gorm:"not null" json:"started_at"`
	SubmittedAt     *time.Time        `json:"submitted_at"`
	GradedAt        *time.Time        `json:"graded_at"`
	TimeUsedMinutes int               `gorm:"not null;default:0" json:"time_used_minutes"`
	TotalWeight     float64           `gorm:"not null" json:"total_weight"`
	ObtainedWeight  *float64          `json:"obtained_weight"`
	Mark            *float64          `json:"mark"`
	ShuffleSeed     *int64            `json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Questions       []AttemptQuestion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
	Answers         []Answer          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers,omitempty"`
}

const (
	// AttemptStatusInProgress is the initial state; answers may still be recorded.
	AttemptStatusInProgress = "in_progress"
	// AttemptStatusSubmitted means objective answers are graded and manual-kind
	// answers await a grader.
	AttemptStatusSubmitted = "submitted"
	// AttemptStatusGraded means every answer has an obtained weight and the mark is final.
	AttemptStatusGraded = "graded"
	// AttemptStatusPublished means results have been released to the student.
	AttemptStatusPublished = "published"
)

// IsActive reports whether the attempt still accepts answer recording.
func (a Attempt) IsActive() bool {
	return a.Status == AttemptStatusInProgress
}

// HasResults reports whether scores may be shown to the owning student.
func (a Attempt) HasResults() bool {
	return a.Status == AttemptStatusGraded || a.Status == AttemptStatusPublished
}

// QuestionIDs returns the frozen snapshot in display order.
func (a Attempt) QuestionIDs() []uint {
	ids := make([]uint, 0, len(a.Questions))
	for _, q := range a.Questions {
		ids = append(ids, q.QuestionID)
	}
	return ids
}

// AttemptQuestion is one row of the frozen question snapshot taken when the
// attempt was assembled. Position is the display order of the draw.
type AttemptQuestion struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	AttemptID  uint `gorm:"not null;uniqueIndex:idx_attempt_question,priority:1" json:"attempt_id"`
	QuestionID uint `gorm:"not null;uniqueIndex:idx_attempt_question,priority:2" json:"question_id"`
	Position   int  `gorm:"not null" json:"position"`
}
