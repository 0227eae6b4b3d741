// Package grading implements the objective scoring rules applied when an
// attempt is submitted. Scoring is deterministic and side-effect free; the
// attempt service decides when to persist the results.
package grading

import "github.com/aulahub/exam-go-api/internal/models"

// Score is the outcome of grading a single question of an attempt.
type Score struct {
	QuestionID     uint
	ObtainedWeight *float64
	IsCorrect      *bool
	RequiresManual bool
}

// Graded reports whether the question received a machine-assigned weight.
func (s Score) Graded() bool {
	return s.ObtainedWeight != nil
}

// Summary aggregates per-question scores for one attempt.
type Summary struct {
	Scores         []Score
	ObtainedWeight float64
	RequiresManual bool
}

// ScoreAttempt grades every question of the frozen snapshot against the
// recorded answers. Ungraded (manual-review) scores contribute zero to the
// provisional ObtainedWeight sum.
func ScoreAttempt(questions []models.Question, answers []models.Answer) Summary {
	byQuestion := make(map[uint]*models.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	summary := Summary{Scores: make([]Score, 0, len(questions))}
	for _, question := range questions {
		score := ScoreQuestion(question, byQuestion[question.ID])
		if score.ObtainedWeight != nil {
			summary.ObtainedWeight += *score.ObtainedWeight
		}
		if score.RequiresManual {
			summary.RequiresManual = true
		}
		summary.Scores = append(summary.Scores, score)
	}

	return summary
}

// ScoreQuestion applies the per-kind scoring rule. A nil answer means the
// question was never answered: it earns zero, is marked incorrect, and is not
// routed to manual review regardless of kind.
func ScoreQuestion(question models.Question, answer *models.Answer) Score {
	score := Score{QuestionID: question.ID}

	if answer == nil {
		score.ObtainedWeight = float64Ptr(0)
		score.IsCorrect = boolPtr(false)
		return score
	}

	if question.RequiresManualGrading() {
		score.RequiresManual = true
		return score
	}

	switch question.Kind {
	case models.QuestionKindBoolean:
		return scoreBoolean(question, answer)
	case models.QuestionKindChoice:
		return scoreChoice(question, answer)
	default:
		// Unknown kinds cannot be auto-graded; treat as manual.
		score.RequiresManual = true
		return score
	}
}

// scoreBoolean awards full weight on an exact key match, zero otherwise.
// Boolean scores are never partial.
func scoreBoolean(question models.Question, answer *models.Answer) Score {
	score := Score{QuestionID: question.ID}

	if question.BoolAnswer == nil || answer.BoolValue == nil {
		score.ObtainedWeight = float64Ptr(0)
		score.IsCorrect = boolPtr(false)
		return score
	}

	if *answer.BoolValue == *question.BoolAnswer {
		score.ObtainedWeight = float64Ptr(question.Weight)
		score.IsCorrect = boolPtr(true)
	} else {
		score.ObtainedWeight = float64Ptr(0)
		score.IsCorrect = boolPtr(false)
	}

	return score
}

// scoreChoice awards weight * |S∩C| / |C| where C is the correct option set
// and S the student's selection. The answer is fully correct only when S = C
// exactly; partial credit never flips the correctness flag.
func scoreChoice(question models.Question, answer *models.Answer) Score {
	score := Score{QuestionID: question.ID}

	correct := toSet(question.CorrectOptionIDs())
	selected := toSet(answer.SelectedSet())

	if len(correct) == 0 || len(selected) == 0 {
		score.ObtainedWeight = float64Ptr(0)
		score.IsCorrect = boolPtr(false)
		return score
	}

	hits := 0
	for id := range selected {
		if _, ok := correct[id]; ok {
			hits++
		}
	}

	obtained := question.Weight * float64(hits) / float64(len(correct))
	obtained = clamp(obtained, 0, question.Weight)

	exact := hits == len(correct) && len(selected) == len(correct)
	score.ObtainedWeight = float64Ptr(obtained)
	score.IsCorrect = boolPtr(exact)

	return score
}

// Mark normalizes an obtained/total weight pair onto the 0-10 scale.
// A zero total weight yields a zero mark.
func Mark(obtainedWeight, totalWeight float64) float64 {
	if totalWeight <= 0 {
		return 0
	}
	return obtainedWeight / totalWeight * 10
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func float64Ptr(v float64) *float64 {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}
