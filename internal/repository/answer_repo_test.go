package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aulahub/exam-go-api/internal/models"
)

func TestAnswerRepositoryUpsertKeepsSingleRow(t *testing.T) {
	db := setupExamTestDB(t)
	repo := NewAnswerRepository(db)

	first := models.Answer{AttemptID: 1, QuestionID: 2, TextBody: "draft"}
	require.NoError(t, repo.Upsert(context.Background(), &first))
	require.NotZero(t, first.ID)

	second := models.Answer{AttemptID: 1, QuestionID: 2, TextBody: "final"}
	require.NoError(t, repo.Upsert(context.Background(), &second))
	require.Equal(t, first.ID, second.ID, "overwrite must reuse the existing row")

	var count int64
	require.NoError(t, db.Model(&models.Answer{}).Where("attempt_id = ? AND question_id = ?", 1, 2).Count(&count).Error)
	require.Equal(t, int64(1), count)

	stored, err := repo.GetByAttemptAndQuestion(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, "final", stored.TextBody)
}

func TestAnswerRepositoryUpsertDistinctQuestions(t *testing.T) {
	db := setupExamTestDB(t)
	repo := NewAnswerRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), &models.Answer{AttemptID: 1, QuestionID: 1}))
	require.NoError(t, repo.Upsert(context.Background(), &models.Answer{AttemptID: 1, QuestionID: 2}))

	answers, err := repo.ListByAttempt(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, answers, 2)
}
