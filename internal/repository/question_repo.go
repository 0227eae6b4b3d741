package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aulahub/exam-go-api/internal/models"
)

// QuestionOrder pairs a question with its new position for batch reordering.
type QuestionOrder struct {
	QuestionID uint
	Position   int
}

// QuestionRepository defines data operations for the question bank.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (models.Question, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Question, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	ReplaceOptions(ctx context.Context, questionID uint, options []models.Option) error
	Delete(ctx context.Context, id uint) error
	Reorder(ctx context.Context, assessmentID uint, orders []QuestionOrder) error
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Question{}).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		})
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.baseQuery(ctx).First(&question, id).Error; err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (r *questionRepository) ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.baseQuery(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("position ASC, id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var questions []models.Question
	if err := r.baseQuery(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

// ReplaceOptions swaps the full option set of a question in one transaction.
func (r *questionRepository) ReplaceOptions(ctx context.Context, questionID uint, options []models.Option) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&models.Option{}).Error; err != nil {
			return err
		}

		for i := range options {
			options[i].ID = 0
			options[i].QuestionID = questionID
		}

		if len(options) == 0 {
			return nil
		}

		return tx.Create(&options).Error
	})
}

func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.Option{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Question{}, id).Error
	})
}

// Reorder applies a batch of position updates atomically so readers never see
// a half-reordered bank.
func (r *questionRepository) Reorder(ctx context.Context, assessmentID uint, orders []QuestionOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, order := range orders {
			result := tx.Model(&models.Question{}).
				Where("id = ? AND assessment_id = ?", order.QuestionID, assessmentID).
				Update("position", order.Position)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		return nil
	})
}
