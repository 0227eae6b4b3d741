package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aulahub/exam-go-api/internal/models"
)

func bankOf(n int) []models.Question {
	bank := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		bank = append(bank, models.Question{ID: uint(i + 1), Weight: float64(i + 1), Position: i})
	}
	return bank
}

func TestDrawQuestionsUnshuffledTakesAuthoredOrder(t *testing.T) {
	drawn := drawQuestions(bankOf(5), 3, false, 0)
	require.Len(t, drawn, 3)
	require.Equal(t, uint(1), drawn[0].ID)
	require.Equal(t, uint(2), drawn[1].ID)
	require.Equal(t, uint(3), drawn[2].ID)
}

func TestDrawQuestionsClampsToBankSize(t *testing.T) {
	require.Len(t, drawQuestions(bankOf(2), 10, false, 0), 2)
	require.Empty(t, drawQuestions(nil, 3, true, 1))
}

func TestDrawQuestionsShuffleIsSeedDeterministic(t *testing.T) {
	first := drawQuestions(bankOf(20), 10, true, 42)
	second := drawQuestions(bankOf(20), 10, true, 42)
	require.Equal(t, first, second)

	other := drawQuestions(bankOf(20), 10, true, 43)
	require.NotEqual(t, first, other)
}

func TestDrawQuestionsShuffleHasNoDuplicates(t *testing.T) {
	drawn := drawQuestions(bankOf(10), 10, true, 7)
	seen := make(map[uint]bool, len(drawn))
	for _, question := range drawn {
		require.False(t, seen[question.ID])
		seen[question.ID] = true
	}
	require.Len(t, seen, 10)
}

func TestSumWeights(t *testing.T) {
	require.InDelta(t, 6.0, sumWeights(bankOf(3)), 1e-9)
	require.Zero(t, sumWeights(nil))
}
