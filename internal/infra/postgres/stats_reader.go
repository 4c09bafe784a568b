package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-scoring-service/internal/domain"
)

// StatsReader runs the raw reporting scans on a pgx pool. The reports are
// read-only joins over the full answer history, so they bypass the ORM.
type StatsReader struct {
	pool *pgxpool.Pool
}

func NewStatsReader(pool *pgxpool.Pool) *StatsReader {
	return &StatsReader{pool: pool}
}

func (r *StatsReader) CategoryAnswerRows(ctx context.Context) ([]domain.CategoryAnswerRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT q.category, a.correct
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		ORDER BY a.id`)
	if err != nil {
		return nil, fmt.Errorf("category answer rows: %w", err)
	}
	defer rows.Close()

	result := make([]domain.CategoryAnswerRow, 0)
	for rows.Next() {
		var row domain.CategoryAnswerRow
		if err := rows.Scan(&row.Category, &row.Correct); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *StatsReader) QuestionAnswerRows(ctx context.Context) ([]domain.QuestionAnswerRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT question_id, correct
		FROM answers
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("question answer rows: %w", err)
	}
	defer rows.Close()

	result := make([]domain.QuestionAnswerRow, 0)
	for rows.Next() {
		var row domain.QuestionAnswerRow
		if err := rows.Scan(&row.QuestionID, &row.Correct); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *StatsReader) CompletedAnswerCorrectness(ctx context.Context) ([]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.correct
		FROM answers a
		JOIN quiz_sessions s ON s.id = a.quiz_session_id
		WHERE s.state = 'completed'
		ORDER BY a.id`)
	if err != nil {
		return nil, fmt.Errorf("completed answer correctness: %w", err)
	}
	defer rows.Close()

	result := make([]bool, 0)
	for rows.Next() {
		var correct bool
		if err := rows.Scan(&correct); err != nil {
			return nil, fmt.Errorf("scan correctness: %w", err)
		}
		result = append(result, correct)
	}
	return result, rows.Err()
}

func (r *StatsReader) CountCompletedSessions(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM quiz_sessions WHERE state = 'completed'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed sessions: %w", err)
	}
	return count, nil
}
