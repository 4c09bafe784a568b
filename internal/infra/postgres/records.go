package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quiz-scoring-service/internal/domain"
)

type questionRecord struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Prompt       string    `bun:"prompt,notnull"`
	Options      []string  `bun:"options,type:jsonb,notnull"`
	CorrectIndex int       `bun:"correct_index,notnull"`
	Explanation  string    `bun:"explanation"`
	Category     string    `bun:"category,notnull"`
	Difficulty   string    `bun:"difficulty,notnull"`
	Active       bool      `bun:"active,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func questionToRecord(q domain.Question) questionRecord {
	return questionRecord{
		ID:           q.ID,
		Prompt:       q.Prompt,
		Options:      q.Options,
		CorrectIndex: q.CorrectIndex,
		Explanation:  q.Explanation,
		Category:     q.Category,
		Difficulty:   string(q.Difficulty),
		Active:       q.Active,
		CreatedAt:    q.CreatedAt,
	}
}

func (r questionRecord) toDomain() domain.Question {
	return domain.Question{
		ID:           r.ID,
		Prompt:       r.Prompt,
		Options:      r.Options,
		CorrectIndex: r.CorrectIndex,
		Explanation:  r.Explanation,
		Category:     r.Category,
		Difficulty:   domain.Difficulty(r.Difficulty),
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
	}
}

type sessionRecord struct {
	bun.BaseModel `bun:"table:quiz_sessions,alias:s"`

	ID           int64      `bun:"id,pk,autoincrement"`
	UserName     string     `bun:"user_name"`
	StartedAt    time.Time  `bun:"started_at,notnull"`
	EndedAt      *time.Time `bun:"ended_at"`
	Score        int        `bun:"score,notnull"`
	Answered     int        `bun:"answered,notnull"`
	Correct      int        `bun:"correct,notnull"`
	State        string     `bun:"state,notnull"`
	TotalSeconds *int       `bun:"total_seconds"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

func sessionToRecord(s domain.QuizSession) sessionRecord {
	return sessionRecord{
		ID:           s.ID,
		UserName:     s.UserName,
		StartedAt:    s.StartedAt,
		EndedAt:      s.EndedAt,
		Score:        s.Score,
		Answered:     s.Answered,
		Correct:      s.Correct,
		State:        string(s.State),
		TotalSeconds: s.TotalSeconds,
		CreatedAt:    s.CreatedAt,
	}
}

func (r sessionRecord) toDomain() domain.QuizSession {
	return domain.QuizSession{
		ID:           r.ID,
		UserName:     r.UserName,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		Score:        r.Score,
		Answered:     r.Answered,
		Correct:      r.Correct,
		State:        domain.SessionState(r.State),
		TotalSeconds: r.TotalSeconds,
		CreatedAt:    r.CreatedAt,
	}
}

type answerRecord struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID              int64     `bun:"id,pk,autoincrement"`
	SessionID       int64     `bun:"quiz_session_id,notnull"`
	QuestionID      int64     `bun:"question_id,notnull"`
	SelectedIndex   int       `bun:"selected_index,notnull"`
	Correct         bool      `bun:"correct,notnull"`
	ResponseSeconds *int      `bun:"response_seconds"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func answerToRecord(a domain.Answer) answerRecord {
	return answerRecord{
		ID:              a.ID,
		SessionID:       a.SessionID,
		QuestionID:      a.QuestionID,
		SelectedIndex:   a.SelectedIndex,
		Correct:         a.Correct,
		ResponseSeconds: a.ResponseSeconds,
		CreatedAt:       a.CreatedAt,
	}
}

func (r answerRecord) toDomain() domain.Answer {
	return domain.Answer{
		ID:              r.ID,
		SessionID:       r.SessionID,
		QuestionID:      r.QuestionID,
		SelectedIndex:   r.SelectedIndex,
		Correct:         r.Correct,
		ResponseSeconds: r.ResponseSeconds,
		CreatedAt:       r.CreatedAt,
	}
}
