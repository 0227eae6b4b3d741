package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aulahub/exam-go-api/internal/models"
)

func TestQuestionRepositoryReorderAppliesBatch(t *testing.T) {
	db := setupExamTestDB(t)
	repo := NewQuestionRepository(db)

	questions := []models.Question{
		{AssessmentID: 1, Kind: models.QuestionKindBoolean, Prompt: "a", Weight: 1, Position: 0},
		{AssessmentID: 1, Kind: models.QuestionKindBoolean, Prompt: "b", Weight: 1, Position: 1},
		{AssessmentID: 1, Kind: models.QuestionKindBoolean, Prompt: "c", Weight: 1, Position: 2},
	}
	require.NoError(t, db.Create(&questions).Error)

	orders := []QuestionOrder{
		{QuestionID: questions[2].ID, Position: 0},
		{QuestionID: questions[0].ID, Position: 1},
		{QuestionID: questions[1].ID, Position: 2},
	}
	require.NoError(t, repo.Reorder(context.Background(), 1, orders))

	stored, err := repo.ListByAssessment(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "c", stored[0].Prompt)
	require.Equal(t, "a", stored[1].Prompt)
	require.Equal(t, "b", stored[2].Prompt)
}

func TestQuestionRepositoryReorderRollsBackOnUnknownQuestion(t *testing.T) {
	db := setupExamTestDB(t)
	repo := NewQuestionRepository(db)

	question := models.Question{AssessmentID: 1, Kind: models.QuestionKindBoolean, Prompt: "a", Weight: 1, Position: 0}
	require.NoError(t, db.Create(&question).Error)

	orders := []QuestionOrder{
		{QuestionID: question.ID, Position: 5},
		{QuestionID: 999, Position: 0},
	}
	require.Error(t, repo.Reorder(context.Background(), 1, orders))

	stored, err := repo.GetByID(context.Background(), question.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stored.Position, "failed batch must not leak partial updates")
}

func TestQuestionRepositoryReplaceOptions(t *testing.T) {
	db := setupExamTestDB(t)
	repo := NewQuestionRepository(db)

	question := models.Question{
		AssessmentID: 1,
		Kind:         models.QuestionKindChoice,
		Prompt:       "pick",
		Weight:       2,
		Options: []models.Option{
			{Text: "old a", IsCorrect: true, Position: 0},
			{Text: "old b", Position: 1},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &question))

	replacement := []models.Option{
		{Text: "new a", Position: 0},
		{Text: "new b", IsCorrect: true, Position: 1},
		{Text: "new c", IsCorrect: true, Position: 2},
	}
	require.NoError(t, repo.ReplaceOptions(context.Background(), question.ID, replacement))

	stored, err := repo.GetByID(context.Background(), question.ID)
	require.NoError(t, err)
	require.Len(t, stored.Options, 3)
	require.Equal(t, "new a", stored.Options[0].Text)
	require.Equal(t, []uint{stored.Options[1].ID, stored.Options[2].ID}, stored.CorrectOptionIDs())
}
