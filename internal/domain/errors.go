package domain

import "errors"

var (
	// ErrSessionNotFound is returned when the referenced quiz session does not exist.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound is returned when the referenced question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound is returned when the referenced answer does not exist.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrIndexOutOfRange indicates a selected option index outside the question's option bounds.
	ErrIndexOutOfRange = errors.New("selected option index out of range")
	// ErrDuplicateAnswer indicates the session already answered this question.
	ErrDuplicateAnswer = errors.New("question already answered in this session")
	// ErrInvalidDifficulty indicates a label outside easy|medium|hard.
	ErrInvalidDifficulty = errors.New("invalid difficulty label")
	// ErrNegativeResponseTime indicates a response time below zero.
	ErrNegativeResponseTime = errors.New("response time must not be negative")
	// ErrNotEnoughQuestions indicates the filtered pool is smaller than the requested sample.
	ErrNotEnoughQuestions = errors.New("not enough questions available")
	// ErrEmptyPrompt indicates a question without prompt text.
	ErrEmptyPrompt = errors.New("question prompt must not be empty")
	// ErrEmptyCategory indicates a question without a category label.
	ErrEmptyCategory = errors.New("question category must not be empty")
	// ErrOptionCount indicates an option list outside the 3-5 range.
	ErrOptionCount = errors.New("question must have between 3 and 5 options")
)
