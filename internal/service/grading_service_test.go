package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/aulahub/exam-go-api/internal/dto"
	"github.com/aulahub/exam-go-api/internal/models"
)

type gradingFixture struct {
	assessments *fakeAssessmentRepo
	attempts    *fakeAttemptRepo
	questions   *fakeQuestionRepo
	answers     *fakeAnswerRepo
	sink        *captureSink
	svc         GradingService
}

// newGradingFixture seeds a submitted attempt over one free-response question
// (weight 4, ungraded) and one choice question (weight 6, already auto-graded
// at full weight).
func newGradingFixture(access RoomAccessChecker) gradingFixture {
	f := gradingFixture{
		assessments: newFakeAssessmentRepo(),
		attempts:    newFakeAttemptRepo(),
		questions:   newFakeQuestionRepo(),
		answers:     newFakeAnswerRepo(),
		sink:        &captureSink{},
	}
	f.svc = NewGradingService(f.attempts, f.assessments, f.questions, f.answers, access, f.sink, validator.New(), testLogger())

	f.assessments.put(models.Assessment{ID: 1, RoomID: 1, Status: models.AssessmentStatusPublished})
	f.questions.put(models.Question{ID: 1, AssessmentID: 1, Kind: models.QuestionKindFreeResponse, Prompt: "explain", Weight: 4})
	f.questions.put(models.Question{ID: 2, AssessmentID: 1, Kind: models.QuestionKindChoice, Prompt: "pick", Weight: 6, Options: []models.Option{
		{ID: 10, QuestionID: 2, Text: "a", IsCorrect: true},
		{ID: 11, QuestionID: 2, Text: "b"},
	}})

	submittedAt := time.Now()
	autoWeight := 6.0
	autoCorrect := true
	f.attempts.put(models.Attempt{
		ID:           1,
		AssessmentID: 1,
		StudentID:    7,
		Number:       1,
		Status:       models.AttemptStatusSubmitted,
		StartedAt:    submittedAt.Add(-time.Hour),
		SubmittedAt:  &submittedAt,
		TotalWeight:  10,
		Questions:    []models.AttemptQuestion{{QuestionID: 1, Position: 0}, {QuestionID: 2, Position: 1}},
	})
	f.answers.put(models.Answer{ID: 1, AttemptID: 1, QuestionID: 1, TextBody: "because"})
	f.answers.put(models.Answer{ID: 2, AttemptID: 1, QuestionID: 2, ObtainedWeight: &autoWeight, IsCorrect: &autoCorrect, GradedAt: &submittedAt})
	return f
}

var teacherActor = Actor{ID: 42, Role: RoleTeacher}

func TestGradeAnswerCapsAtQuestionWeight(t *testing.T) {
	f := newGradingFixture(AllowAllAccess{})

	_, err := f.svc.GradeAnswer(context.Background(), 1, 1, dto.GradeAnswerRequest{ObtainedWeight: 4.5}, teacherActor)
	require.ErrorIs(t, err, ErrScoreExceedsMaxWeight)
}

func TestGradeAnswerRequiresSubmittedAttempt(t *testing.T) {
	f := newGradingFixture(AllowAllAccess{})
	attempt, _ := f.attempts.GetByID(context.Background(), 1)
	attempt.Status = models.AttemptStatusInProgress
	f.attempts.put(attempt)

	_, err := f.svc.GradeAnswer(context.Background(), 1, 1, dto.GradeAnswerRequest{ObtainedWeight: 2}, teacherActor)
	require.ErrorIs(t, err, ErrAttemptNotSubmitted)
}

func TestGradeAnswerRejectsForeignAnswer(t *testing.T) {
	f := newGradingFixture(AllowAllAccess{})
	f.answers.put(models.Answer{ID: 9, AttemptID: 2, QuestionID: 1})

	_, err := f.svc.GradeAnswer(context.Background(), 1, 9, dto.GradeAnswerRequest{ObtainedWeight: 1}, teacherActor)
	require.ErrorIs(t, err, ErrAnswerNotFound)
}

func TestGradeAnswerRequiresTeacher(t *testing.T) {
	f := newGradingFixture(AllowAllAccess{})

	_, err := f.svc.GradeAnswer(context.Background(), 1, 1, dto.GradeAnswerRequest{ObtainedWeight: 2}, Actor{ID: 7, Role: RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestGradeAnswerPersistsScoreAndSanitizedFeedback(t *testing.T) {
	f := newGradingFixture(AllowAllAccess{})

	resp, err := f.svc.GradeAnswer(context.Background(), 1, 1, dto.GradeAnswerRequest{
		ObtainedWeight: 3,
		Feedback:       "<script>alert(1)</script> solid reasoning",
	}, teacherActor)
	require.NoError(t, err)
	require.NotNil(t, resp.ObtainedWeight)
	require.InDelta(t, 3.0, *resp.ObtainedWeight, 1e-9)
	require.NotNil(t, resp.IsCorrect)
	require.True(t, *resp.IsCorrect)
	require.Equal(t, "solid reasoning", resp.Feedback)

	stored, err := f.answers.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, stored.GradedAt)
	require.Equal(t, "solid reasoning", stored.Feedback)
}

func TestGradeAnswerZeroWeightIsIncorrect(t *testing.T) {
	f := newGradingFixture(AllowAllAccess{})

	resp, err := f.svc.GradeAnswer(context.Background(), 1, 1, dto.GradeAnswerRequest{ObtainedWeight: 0}, teacherActor)
	require.NoError(t, err)
	require.NotNil(t, resp.IsCorrect)
	require.False(t, *resp.IsCorrect)
}

func TestPublishResultsBlockedWhilePendingManualGrades(t *testing.T) {
	f := newGradingFixture(AllowAllAccess{})

	_, err := f.svc.PublishResults(context.Background(), 1, teacherActor)
	require.ErrorIs(t, err, ErrPendingManualGrades)
}

func TestPublishResultsRejectsActiveAttempt(t *testing.T) {
	f := newGradingFixture(AllowAllAccess{})
	attempt, _ := f.attempts.GetByID(context.Background(), 1)
	attempt.Status = models.AttemptStatusInProgress
	f.attempts.put(attempt)

	_, err := f.svc.PublishResults(context.Background(), 1, teacherActor)
	require.ErrorIs(t, err, ErrAttemptNotSubmitted)
}

func TestPublishResultsReconcilesAndIsIdempotent(t *testing.T) {
	f := newGradingFixture(AllowAllAccess{})

	_, err := f.svc.GradeAnswer(context.Background(), 1, 1, dto.GradeAnswerRequest{ObtainedWeight: 4}, teacherActor)
	require.NoError(t, err)

	resp, err := f.svc.PublishResults(context.Background(), 1, teacherActor)
	require.NoError(t, err)
	require.InDelta(t, 10.0, resp.ObtainedWeight, 1e-9)
	require.InDelta(t, 10.0, resp.Mark, 1e-9)

	published, err := f.attempts.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.AttemptStatusPublished, published.Status)
	require.NotNil(t, published.GradedAt)

	require.Len(t, f.sink.events, 1)
	require.Equal(t, EventResultsPublished, f.sink.events[0].Type)
	require.NotNil(t, f.sink.events[0].Mark)

	again, err := f.svc.PublishResults(context.Background(), 1, teacherActor)
	require.NoError(t, err)
	require.InDelta(t, resp.Mark, again.Mark, 1e-9)
}

func TestListAttemptsRequiresTeacher(t *testing.T) {
	f := newGradingFixture(AllowAllAccess{})

	_, err := f.svc.ListAttempts(context.Background(), 1, Actor{ID: 7, Role: RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)

	attempts, err := f.svc.ListAttempts(context.Background(), 1, teacherActor)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
}
