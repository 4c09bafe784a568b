package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-scoring-service/internal/domain"
)

const pgUniqueViolation = "23505"

// Repository is the bun-backed implementation of the engine's storage surface
// for questions, sessions and answers. The reporting scans live in StatsReader.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	var rec questionRecord
	err := r.db.NewSelect().Model(&rec).Where("q.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) ListQuestions(ctx context.Context, f domain.QuestionFilter) ([]domain.Question, error) {
	var recs []questionRecord
	q := r.db.NewSelect().Model(&recs).Where("q.active").Order("q.id ASC")
	if f.Category != "" {
		q = q.Where("q.category = ?", f.Category)
	}
	if f.Difficulty != "" {
		q = q.Where("q.difficulty = ?", string(f.Difficulty))
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questions := make([]domain.Question, 0, len(recs))
	for _, rec := range recs {
		questions = append(questions, rec.toDomain())
	}
	return questions, nil
}

func (r *Repository) CreateQuestion(ctx context.Context, q *domain.Question) error {
	rec := questionToRecord(*q)
	if _, err := r.db.NewInsert().Model(&rec).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	q.ID = rec.ID
	return nil
}

func (r *Repository) UpdateQuestion(ctx context.Context, q *domain.Question) error {
	rec := questionToRecord(*q)
	res, err := r.db.NewUpdate().Model(&rec).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *Repository) CountActiveQuestions(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().Model((*questionRecord)(nil)).Where("q.active").Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count active questions: %w", err)
	}
	return count, nil
}

func (r *Repository) CountActiveQuestionsByCategory(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Category string `bun:"category"`
		Count    int    `bun:"count"`
	}
	err := r.db.NewSelect().
		Model((*questionRecord)(nil)).
		ColumnExpr("q.category AS category, count(*) AS count").
		Where("q.active").
		Group("q.category").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count questions by category: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}
	return counts, nil
}

func (r *Repository) GetSession(ctx context.Context, id int64) (domain.QuizSession, error) {
	var rec sessionRecord
	err := r.db.NewSelect().Model(&rec).Where("s.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("get session: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) CreateSession(ctx context.Context, s *domain.QuizSession) error {
	rec := sessionToRecord(*s)
	if _, err := r.db.NewInsert().Model(&rec).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	s.ID = rec.ID
	return nil
}

func (r *Repository) SaveSession(ctx context.Context, s *domain.QuizSession) error {
	rec := sessionToRecord(*s)
	res, err := r.db.NewUpdate().Model(&rec).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes the session row; answers go with it through the
// ON DELETE CASCADE constraint.
func (r *Repository) DeleteSession(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().Model((*sessionRecord)(nil)).Where("s.id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *Repository) ListSessions(ctx context.Context, f domain.SessionFilter) ([]domain.QuizSession, error) {
	var recs []sessionRecord
	q := r.db.NewSelect().Model(&recs).Order("s.id ASC")
	if f.State != "" {
		q = q.Where("s.state = ?", string(f.State))
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]domain.QuizSession, 0, len(recs))
	for _, rec := range recs {
		sessions = append(sessions, rec.toDomain())
	}
	return sessions, nil
}

func (r *Repository) GetAnswer(ctx context.Context, id int64) (domain.Answer, error) {
	var rec answerRecord
	err := r.db.NewSelect().Model(&rec).Where("a.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	if err != nil {
		return domain.Answer{}, fmt.Errorf("get answer: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) FindAnswer(ctx context.Context, sessionID, questionID int64) (domain.Answer, error) {
	var rec answerRecord
	err := r.db.NewSelect().Model(&rec).
		Where("a.quiz_session_id = ?", sessionID).
		Where("a.question_id = ?", questionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	if err != nil {
		return domain.Answer{}, fmt.Errorf("find answer: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) ListAnswers(ctx context.Context, sessionID int64) ([]domain.Answer, error) {
	var recs []answerRecord
	err := r.db.NewSelect().Model(&recs).
		Where("a.quiz_session_id = ?", sessionID).
		Order("a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	answers := make([]domain.Answer, 0, len(recs))
	for _, rec := range recs {
		answers = append(answers, rec.toDomain())
	}
	return answers, nil
}

// CreateAnswer inserts the answer. The unique constraint on
// (quiz_session_id, question_id) arbitrates racing submissions; the loser's
// unique violation is mapped to domain.ErrDuplicateAnswer.
func (r *Repository) CreateAnswer(ctx context.Context, a *domain.Answer) error {
	rec := answerToRecord(*a)
	if _, err := r.db.NewInsert().Model(&rec).Returning("id").Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == pgUniqueViolation {
			return domain.ErrDuplicateAnswer
		}
		return fmt.Errorf("create answer: %w", err)
	}
	a.ID = rec.ID
	return nil
}

func (r *Repository) UpdateAnswer(ctx context.Context, a *domain.Answer) error {
	rec := answerToRecord(*a)
	res, err := r.db.NewUpdate().Model(&rec).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrAnswerNotFound
	}
	return nil
}
