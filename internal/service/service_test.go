package service

import (
	"context"
	"io"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aulahub/exam-go-api/internal/models"
	"github.com/aulahub/exam-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// denyAccess refuses every membership check.
type denyAccess struct{}

func (denyAccess) IsAuthorized(context.Context, uint, uint, string) (bool, error) {
	return false, nil
}

type captureSink struct {
	events []Event
}

func (s *captureSink) Publish(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	return nil
}

type fakeAssessmentRepo struct {
	items  map[uint]models.Assessment
	nextID uint
}

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{items: map[uint]models.Assessment{}, nextID: 1}
}

func (r *fakeAssessmentRepo) put(assessment models.Assessment) models.Assessment {
	if assessment.ID == 0 {
		assessment.ID = r.nextID
	}
	if assessment.ID >= r.nextID {
		r.nextID = assessment.ID + 1
	}
	r.items[assessment.ID] = assessment
	return assessment
}

func (r *fakeAssessmentRepo) Create(_ context.Context, assessment *models.Assessment) error {
	*assessment = r.put(*assessment)
	return nil
}

func (r *fakeAssessmentRepo) GetByID(_ context.Context, id uint) (models.Assessment, error) {
	item, ok := r.items[id]
	if !ok {
		return models.Assessment{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeAssessmentRepo) GetWithBank(ctx context.Context, id uint) (models.Assessment, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeAssessmentRepo) ListByRoom(_ context.Context, roomID uint) ([]models.Assessment, error) {
	var out []models.Assessment
	for _, item := range r.items {
		if item.RoomID == roomID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAssessmentRepo) Update(_ context.Context, assessment *models.Assessment) error {
	r.items[assessment.ID] = *assessment
	return nil
}

type fakeAttemptRepo struct {
	items     map[uint]models.Attempt
	nextID    uint
	finalized []models.Answer
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{items: map[uint]models.Attempt{}, nextID: 1}
}

func (r *fakeAttemptRepo) put(attempt models.Attempt) models.Attempt {
	if attempt.ID == 0 {
		attempt.ID = r.nextID
	}
	if attempt.ID >= r.nextID {
		r.nextID = attempt.ID + 1
	}
	r.items[attempt.ID] = attempt
	return attempt
}

func (r *fakeAttemptRepo) CreateWithSnapshot(_ context.Context, attempt *models.Attempt, questionIDs []uint) error {
	for _, existing := range r.items {
		if existing.AssessmentID == attempt.AssessmentID &&
			existing.StudentID == attempt.StudentID &&
			existing.Status == models.AttemptStatusInProgress {
			return gorm.ErrDuplicatedKey
		}
	}

	for position, questionID := range questionIDs {
		attempt.Questions = append(attempt.Questions, models.AttemptQuestion{
			QuestionID: questionID,
			Position:   position,
		})
	}
	*attempt = r.put(*attempt)
	return nil
}

func (r *fakeAttemptRepo) GetByID(_ context.Context, id uint) (models.Attempt, error) {
	item, ok := r.items[id]
	if !ok {
		return models.Attempt{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeAttemptRepo) GetActive(_ context.Context, assessmentID, studentID uint) (models.Attempt, error) {
	for _, item := range r.items {
		if item.AssessmentID == assessmentID && item.StudentID == studentID && item.Status == models.AttemptStatusInProgress {
			return item, nil
		}
	}
	return models.Attempt{}, gorm.ErrRecordNotFound
}

func (r *fakeAttemptRepo) CountByStudent(_ context.Context, assessmentID, studentID uint) (int64, error) {
	var count int64
	for _, item := range r.items {
		if item.AssessmentID == assessmentID && item.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeAttemptRepo) CountSettled(_ context.Context, assessmentID uint) (int64, error) {
	var count int64
	for _, item := range r.items {
		if item.AssessmentID == assessmentID && item.Status != models.AttemptStatusInProgress {
			count++
		}
	}
	return count, nil
}

func (r *fakeAttemptRepo) ListByAssessment(_ context.Context, assessmentID uint) ([]models.Attempt, error) {
	var out []models.Attempt
	for _, item := range r.items {
		if item.AssessmentID == assessmentID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAttemptRepo) Update(_ context.Context, attempt *models.Attempt) error {
	r.items[attempt.ID] = *attempt
	return nil
}

func (r *fakeAttemptRepo) FinalizeGrading(_ context.Context, attempt *models.Attempt, answers []models.Answer) error {
	r.items[attempt.ID] = *attempt
	r.finalized = answers
	return nil
}

type fakeQuestionRepo struct {
	items  map[uint]models.Question
	nextID uint
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{items: map[uint]models.Question{}, nextID: 1}
}

func (r *fakeQuestionRepo) put(question models.Question) models.Question {
	if question.ID == 0 {
		question.ID = r.nextID
	}
	if question.ID >= r.nextID {
		r.nextID = question.ID + 1
	}
	r.items[question.ID] = question
	return question
}

func (r *fakeQuestionRepo) Create(_ context.Context, question *models.Question) error {
	*question = r.put(*question)
	return nil
}

func (r *fakeQuestionRepo) GetByID(_ context.Context, id uint) (models.Question, error) {
	item, ok := r.items[id]
	if !ok {
		return models.Question{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeQuestionRepo) ListByAssessment(_ context.Context, assessmentID uint) ([]models.Question, error) {
	var out []models.Question
	for _, item := range r.items {
		if item.AssessmentID == assessmentID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeQuestionRepo) ListByIDs(_ context.Context, ids []uint) ([]models.Question, error) {
	var out []models.Question
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) Update(_ context.Context, question *models.Question) error {
	r.items[question.ID] = *question
	return nil
}

func (r *fakeQuestionRepo) ReplaceOptions(_ context.Context, questionID uint, options []models.Option) error {
	item, ok := r.items[questionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Options = options
	r.items[questionID] = item
	return nil
}

func (r *fakeQuestionRepo) Delete(_ context.Context, id uint) error {
	delete(r.items, id)
	return nil
}

func (r *fakeQuestionRepo) Reorder(_ context.Context, assessmentID uint, orders []repository.QuestionOrder) error {
	for _, order := range orders {
		item, ok := r.items[order.QuestionID]
		if !ok || item.AssessmentID != assessmentID {
			return gorm.ErrRecordNotFound
		}
		item.Position = order.Position
		r.items[order.QuestionID] = item
	}
	return nil
}

type fakeAnswerRepo struct {
	items  map[uint]models.Answer
	nextID uint
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{items: map[uint]models.Answer{}, nextID: 1}
}

func (r *fakeAnswerRepo) put(answer models.Answer) models.Answer {
	if answer.ID == 0 {
		answer.ID = r.nextID
	}
	if answer.ID >= r.nextID {
		r.nextID = answer.ID + 1
	}
	r.items[answer.ID] = answer
	return answer
}

func (r *fakeAnswerRepo) GetByID(_ context.Context, id uint) (models.Answer, error) {
	item, ok := r.items[id]
	if !ok {
		return models.Answer{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeAnswerRepo) GetByAttemptAndQuestion(_ context.Context, attemptID, questionID uint) (models.Answer, error) {
	for _, item := range r.items {
		if item.AttemptID == attemptID && item.QuestionID == questionID {
			return item, nil
		}
	}
	return models.Answer{}, gorm.ErrRecordNotFound
}

func (r *fakeAnswerRepo) ListByAttempt(_ context.Context, attemptID uint) ([]models.Answer, error) {
	var out []models.Answer
	for _, item := range r.items {
		if item.AttemptID == attemptID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAnswerRepo) Upsert(_ context.Context, answer *models.Answer) error {
	for _, item := range r.items {
		if item.AttemptID == answer.AttemptID && item.QuestionID == answer.QuestionID {
			answer.ID = item.ID
			break
		}
	}
	*answer = r.put(*answer)
	return nil
}

func (r *fakeAnswerRepo) Update(_ context.Context, answer *models.Answer) error {
	r.items[answer.ID] = *answer
	return nil
}
