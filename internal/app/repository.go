package app

import (
	"context"

	"quiz-scoring-service/internal/domain"
)

// QuestionRepository stores the question catalog.
type QuestionRepository interface {
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	// ListQuestions returns active questions matching the filter.
	ListQuestions(ctx context.Context, f domain.QuestionFilter) ([]domain.Question, error)
	CreateQuestion(ctx context.Context, q *domain.Question) error
	UpdateQuestion(ctx context.Context, q *domain.Question) error
	CountActiveQuestions(ctx context.Context) (int, error)
	CountActiveQuestionsByCategory(ctx context.Context) (map[string]int, error)
}

// SessionRepository stores quiz sessions.
type SessionRepository interface {
	GetSession(ctx context.Context, id int64) (domain.QuizSession, error)
	CreateSession(ctx context.Context, s *domain.QuizSession) error
	SaveSession(ctx context.Context, s *domain.QuizSession) error
	// DeleteSession removes the session and all of its answers.
	DeleteSession(ctx context.Context, id int64) error
	ListSessions(ctx context.Context, f domain.SessionFilter) ([]domain.QuizSession, error)
}

// AnswerRepository stores recorded answers.
type AnswerRepository interface {
	GetAnswer(ctx context.Context, id int64) (domain.Answer, error)
	FindAnswer(ctx context.Context, sessionID, questionID int64) (domain.Answer, error)
	ListAnswers(ctx context.Context, sessionID int64) ([]domain.Answer, error)
	// CreateAnswer persists a new answer. The (SessionID, QuestionID) pair is
	// unique; racing inserts for the same pair must yield exactly one winner,
	// the loser receives domain.ErrDuplicateAnswer.
	CreateAnswer(ctx context.Context, a *domain.Answer) error
	UpdateAnswer(ctx context.Context, a *domain.Answer) error
}

// StatsRepository exposes the raw history scans backing the reports.
type StatsRepository interface {
	// CategoryAnswerRows joins every answer to its question's category,
	// in stable store order.
	CategoryAnswerRows(ctx context.Context) ([]domain.CategoryAnswerRow, error)
	// QuestionAnswerRows lists (question, correctness) for every answer,
	// in stable store order.
	QuestionAnswerRows(ctx context.Context) ([]domain.QuestionAnswerRow, error)
	// CompletedAnswerCorrectness lists the correctness flag of every answer
	// belonging to a completed session.
	CompletedAnswerCorrectness(ctx context.Context) ([]bool, error)
	CountCompletedSessions(ctx context.Context) (int, error)
}

// Repository is the full storage surface the engine consumes.
type Repository interface {
	QuestionRepository
	SessionRepository
	AnswerRepository
	StatsRepository
}
