package service

import "errors"

// Not-found failures, raised when a referenced entity does not exist.
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAnswerNotFound     = errors.New("answer not found")
)

// ErrForbidden indicates the acting principal failed a role or ownership check.
var ErrForbidden = errors.New("forbidden")

// Invalid-state failures: the operation targeted an attempt or assessment in
// the wrong lifecycle state.
var (
	// ErrAttemptNotActive indicates answer recording against an attempt that
	// already left in_progress.
	ErrAttemptNotActive = errors.New("attempt is not in progress")
	// ErrAlreadySubmitted indicates a repeated submission of the same attempt.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrAttemptNotSubmitted indicates manual grading or publication against an
	// attempt that has not been submitted yet.
	ErrAttemptNotSubmitted = errors.New("attempt not submitted")
	// ErrAssessmentLocked indicates a bank or definition mutation after at
	// least one attempt settled.
	ErrAssessmentLocked = errors.New("assessment is locked by existing attempts")
	// ErrPendingManualGrades indicates publication before every manual-kind
	// answer received a grade.
	ErrPendingManualGrades = errors.New("manual grades still pending")
	// ErrInvalidStatusChange indicates an assessment lifecycle transition that
	// the state machine does not allow.
	ErrInvalidStatusChange = errors.New("invalid assessment status change")
)

// Policy violations: the operation is well-formed but the attempt policy
// rejects it.
var (
	ErrAssessmentNotPublished = errors.New("assessment is not published")
	ErrAssessmentNotOpen      = errors.New("assessment is outside its open window")
	ErrAttemptsExhausted      = errors.New("allowed attempts exhausted")
	ErrNoQuestionsAvailable   = errors.New("question bank is empty")
	ErrScoreExceedsMaxWeight  = errors.New("score exceeds question weight")
	ErrQuestionNotInAttempt   = errors.New("question is not part of the attempt")
	ErrInvalidOptionSet       = errors.New("choice questions need at least two options and one correct")
	ErrMissingAnswerKey       = errors.New("boolean questions need an answer key")
)

// ErrDuplicateAttempt indicates a concurrent start race that could not be
// resolved by returning the pre-existing in-progress attempt.
var ErrDuplicateAttempt = errors.New("duplicate in-progress attempt")
