package service

import (
	"math/rand"

	"github.com/aulahub/exam-go-api/internal/models"
)

// drawQuestions selects the question subset for one attempt. The count drawn
// is min(questionsToShow, bank size). A shuffled draw uses a Fisher-Yates
// shuffle seeded per attempt, truncated to the required count; the draw order
// becomes the attempt's display order. An unshuffled draw takes the first N
// questions by authored order.
func drawQuestions(bank []models.Question, questionsToShow int, shuffle bool, seed int64) []models.Question {
	count := questionsToShow
	if count > len(bank) {
		count = len(bank)
	}
	if count <= 0 {
		return nil
	}

	if !shuffle {
		selected := make([]models.Question, count)
		copy(selected, bank[:count])
		return selected
	}

	indexes := make([]int, len(bank))
	for i := range indexes {
		indexes[i] = i
	}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < count; i++ {
		j := i + rng.Intn(len(indexes)-i)
		indexes[i], indexes[j] = indexes[j], indexes[i]
	}

	selected := make([]models.Question, 0, count)
	for _, index := range indexes[:count] {
		selected = append(selected, bank[index])
	}

	return selected
}

// sumWeights totals the weights of the drawn subset; the result is frozen
// into the attempt as its total possible weight.
func sumWeights(questions []models.Question) float64 {
	total := 0.0
	for _, question := range questions {
		total += question.Weight
	}
	return total
}
