package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aulahub/exam-go-api/internal/models"
)

// AttemptRepository defines data operations for attempts and their frozen
// question snapshots.
type AttemptRepository interface {
	// CreateWithSnapshot inserts the attempt row and its snapshot rows in one
	// transaction. A partial insert is never observable.
	CreateWithSnapshot(ctx context.Context, attempt *models.Attempt, questionIDs []uint) error
	GetByID(ctx context.Context, id uint) (models.Attempt, error)
	GetActive(ctx context.Context, assessmentID, studentID uint) (models.Attempt, error)
	CountByStudent(ctx context.Context, assessmentID, studentID uint) (int64, error)
	// CountSettled counts attempts in any state other than in_progress; a
	// non-zero result locks the question bank.
	CountSettled(ctx context.Context, assessmentID uint) (int64, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Attempt, error)
	Update(ctx context.Context, attempt *models.Attempt) error
	// FinalizeGrading persists the attempt state transition together with all
	// graded answers as one atomic unit.
	FinalizeGrading(ctx context.Context, attempt *models.Attempt, answers []models.Answer) error
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository instantiates the repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Attempt{}).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Answers")
}

func (r *attemptRepository) CreateWithSnapshot(ctx context.Context, attempt *models.Attempt, questionIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}

		snapshot := make([]models.AttemptQuestion, 0, len(questionIDs))
		for position, questionID := range questionIDs {
			snapshot = append(snapshot, models.AttemptQuestion{
				AttemptID:  attempt.ID,
				QuestionID: questionID,
				Position:   position,
			})
		}

		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}

		attempt.Questions = snapshot
		return nil
	})
}

func (r *attemptRepository) GetByID(ctx context.Context, id uint) (models.Attempt, error) {
	var attempt models.Attempt
	if err := r.baseQuery(ctx).First(&attempt, id).Error; err != nil {
		return models.Attempt{}, err
	}

	return attempt, nil
}

func (r *attemptRepository) GetActive(ctx context.Context, assessmentID, studentID uint) (models.Attempt, error) {
	var attempt models.Attempt
	if err := r.baseQuery(ctx).
		Where("assessment_id = ?", assessmentID).
		Where("student_id = ?", studentID).
		Where("status = ?", models.AttemptStatusInProgress).
		First(&attempt).Error; err != nil {
		return models.Attempt{}, err
	}

	return attempt, nil
}

func (r *attemptRepository) CountByStudent(ctx context.Context, assessmentID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Attempt{}).
		Where("assessment_id = ?", assessmentID).
		Where("student_id = ?", studentID).
		Count(&count).Error

	return count, err
}

func (r *attemptRepository) CountSettled(ctx context.Context, assessmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Attempt{}).
		Where("assessment_id = ?", assessmentID).
		Where("status <> ?", models.AttemptStatusInProgress).
		Count(&count).Error

	return count, err
}

func (r *attemptRepository) ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Attempt, error) {
	var attempts []models.Attempt
	if err := r.baseQuery(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("student_id ASC, number ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *attemptRepository) Update(ctx context.Context, attempt *models.Attempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

func (r *attemptRepository) FinalizeGrading(ctx context.Context, attempt *models.Attempt, answers []models.Answer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range answers {
			if err := tx.Save(&answers[i]).Error; err != nil {
				return err
			}
		}

		return tx.Omit("Questions", "Answers").Save(attempt).Error
	})
}
