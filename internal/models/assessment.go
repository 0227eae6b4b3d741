package models

import "time"

// Assessment defines a gradable quiz owned by a classroom, together with its
// attempt policy (window, duration, attempt count, draw size and order).
type Assessment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	RoomID           uint       `gorm:"not null;index" json:"room_id"`
	SectionID        *uint      `gorm:"index" json:"section_id"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	MinPassMark      float64    `gorm:"not null;default:6" json:"min_pass_mark"`
	OpensAt          *time.Time `json:"opens_at"`
	ClosesAt         *time.Time `json:"closes_at"`
	DurationMinutes  int        `gorm:"not null" json:"duration_minutes"`
	MaxAttempts      int        `gorm:"not null;default:1" json:"max_attempts"`
	QuestionsToShow  int        `gorm:"not null" json:"questions_to_show"`
	ShuffleQuestions bool       `gorm:"not null;default:false" json:"shuffle_questions"`
	RevealAnswers    bool       `gorm:"not null;default:false" json:"reveal_answers"`
	Status           string     `gorm:"size:32;not null;default:draft" json:"status"`
	CreatedBy        uint       `gorm:"not null" json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Questions        []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

const (
	// AssessmentStatusDraft marks an assessment still being authored.
	AssessmentStatusDraft = "draft"
	// AssessmentStatusPublished marks an assessment open for attempts within its window.
	AssessmentStatusPublished = "published"
	// AssessmentStatusClosed marks an assessment no longer accepting attempts.
	AssessmentStatusClosed = "closed"
)

// IsOpenAt reports whether the assessment window admits new activity at the given instant.
func (a Assessment) IsOpenAt(now time.Time) bool {
	if a.OpensAt != nil && now.Before(*a.OpensAt) {
		return false
	}
	if a.ClosesAt != nil && !now.Before(*a.ClosesAt) {
		return false
	}
	return true
}
