package domain

import (
	"strings"
	"time"
)

// Difficulty is the fixed three-value label attached to a question. It is
// editorial metadata, unrelated to the error rate computed from history.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes a label to the fixed vocabulary.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(raw))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	}
	return "", ErrInvalidDifficulty
}

// SessionState is the lifecycle state of a quiz session.
type SessionState string

const (
	SessionInProgress SessionState = "in_progress"
	SessionCompleted  SessionState = "completed"
	SessionAbandoned  SessionState = "abandoned"
)

// Question is a multiple-choice question with exactly one correct option.
// Invariant: 0 <= CorrectIndex < len(Options), and 3 to 5 options.
type Question struct {
	ID           int64      `json:"id"`
	Prompt       string     `json:"prompt"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correctIndex"`
	Explanation  string     `json:"explanation,omitempty"`
	Category     string     `json:"category"`
	Difficulty   Difficulty `json:"difficulty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
}

const (
	MinOptions = 3
	MaxOptions = 5
)

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return ErrOptionCount
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ErrIndexOutOfRange
	}
	if strings.TrimSpace(q.Category) == "" {
		return ErrEmptyCategory
	}
	if _, err := ParseDifficulty(string(q.Difficulty)); err != nil {
		return err
	}
	return nil
}

// QuestionPatch names exactly the question fields a partial update carries.
// Nil means "leave unchanged". Options and CorrectIndex are validated together
// against the patched question before anything is written.
type QuestionPatch struct {
	Prompt       *string  `json:"prompt,omitempty"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
	Explanation  *string  `json:"explanation,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Difficulty   *string  `json:"difficulty,omitempty"`
	Active       *bool    `json:"active,omitempty"`
}

// QuestionFilter narrows catalog listings. Zero values mean "no filter".
type QuestionFilter struct {
	Category   string
	Difficulty Difficulty
	Offset     int
	Limit      int
}

// QuizSession is one attempt at answering a sequence of questions.
// Score, Answered and Correct are recomputed from the session's answers at
// completion; they are never trusted incrementally.
type QuizSession struct {
	ID           int64        `json:"id"`
	UserName     string       `json:"userName,omitempty"`
	StartedAt    time.Time    `json:"startedAt"`
	EndedAt      *time.Time   `json:"endedAt,omitempty"`
	Score        int          `json:"score"`
	Answered     int          `json:"answered"`
	Correct      int          `json:"correct"`
	State        SessionState `json:"state"`
	TotalSeconds *int         `json:"totalSeconds,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	State  SessionState
	Offset int
	Limit  int
}

// Answer is one recorded response to one question within one session.
// At most one answer exists per (SessionID, QuestionID) pair.
type Answer struct {
	ID              int64     `json:"id"`
	SessionID       int64     `json:"sessionId"`
	QuestionID      int64     `json:"questionId"`
	SelectedIndex   int       `json:"selectedIndex"`
	Correct         bool      `json:"correct"`
	ResponseSeconds *int      `json:"responseSeconds,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AnswerDetail is an answer joined with its question for review views.
type AnswerDetail struct {
	Answer
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	SelectedText string   `json:"selectedText"`
}

// PointsPerCorrectAnswer is the fixed scoring rule.
const PointsPerCorrectAnswer = 10

// ScoreSummary aggregates the recorded answers of a single session.
type ScoreSummary struct {
	SessionID          int64   `json:"sessionId"`
	Score              int     `json:"score"`
	Answered           int     `json:"answered"`
	Correct            int     `json:"correct"`
	AccuracyPct        float64 `json:"accuracyPct"`
	AvgResponseSeconds float64 `json:"avgResponseSeconds"`
}

// CategoryDifficulty ranks a category by its historical error rate.
type CategoryDifficulty struct {
	Category    string  `json:"category"`
	AccuracyPct float64 `json:"accuracyPct"`
	ErrorPct    float64 `json:"errorPct"`
}

// GlobalSummary is the system-wide statistics report.
type GlobalSummary struct {
	ActiveQuestions    int                  `json:"activeQuestions"`
	CompletedSessions  int                  `json:"completedSessions"`
	OverallAccuracyPct float64              `json:"overallAccuracyPct"`
	HardestCategories  []CategoryDifficulty `json:"hardestCategories"`
}

// QuestionDifficulty reports historical performance for one question.
type QuestionDifficulty struct {
	QuestionID  int64      `json:"questionId"`
	Prompt      string     `json:"prompt"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Answered    int        `json:"answered"`
	Correct     int        `json:"correct"`
	Incorrect   int        `json:"incorrect"`
	AccuracyPct float64    `json:"accuracyPct"`
	ErrorPct    float64    `json:"errorPct"`
}

// CategoryPerformance reports historical performance for one category.
type CategoryPerformance struct {
	Category        string  `json:"category"`
	ActiveQuestions int     `json:"activeQuestions"`
	Answered        int     `json:"answered"`
	Correct         int     `json:"correct"`
	Errors          int     `json:"errors"`
	AccuracyPct     float64 `json:"accuracyPct"`
}

// CategoryAnswerRow is one (category, correctness) pair from the scan joining
// every answer to its question's category. Rows keep store order so ranking
// tie-breaks stay stable.
type CategoryAnswerRow struct {
	Category string
	Correct  bool
}

// QuestionAnswerRow is one (question, correctness) pair from the answer scan.
type QuestionAnswerRow struct {
	QuestionID int64
	Correct    bool
}
