package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/aulahub/exam-go-api/internal/models"
)

// AnswerRepository defines data operations for per-question answers.
type AnswerRepository interface {
	GetByID(ctx context.Context, id uint) (models.Answer, error)
	GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (models.Answer, error)
	ListByAttempt(ctx context.Context, attemptID uint) ([]models.Answer, error)
	// Upsert overwrites the existing answer row for (attempt, question) or
	// inserts a new one, so exactly one row exists per pair at all times.
	Upsert(ctx context.Context, answer *models.Answer) error
	Update(ctx context.Context, answer *models.Answer) error
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository instantiates the repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return models.Answer{}, err
	}

	return answer, nil
}

func (r *answerRepository) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Where("question_id = ?", questionID).
		First(&answer).Error; err != nil {
		return models.Answer{}, err
	}

	return answer, nil
}

func (r *answerRepository) ListByAttempt(ctx context.Context, attemptID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

func (r *answerRepository) Upsert(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Answer
		err := tx.Where("attempt_id = ?", answer.AttemptID).
			Where("question_id = ?", answer.QuestionID).
			First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(answer).Error
			}
			return err
		}

		answer.ID = existing.ID
		answer.CreatedAt = existing.CreatedAt
		return tx.Save(answer).Error
	})
}

func (r *answerRepository) Update(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Save(answer).Error
}
