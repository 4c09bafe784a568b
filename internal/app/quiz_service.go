package app

import (
	"context"
	"math"
	"math/rand"
	"time"

	"quiz-scoring-service/internal/domain"
)

// QuizService contains the catalog, session and answer use cases.
type QuizService struct {
	questions QuestionRepository
	sessions  SessionRepository
	answers   AnswerRepository
	now       func() time.Time
}

func NewQuizService(questions QuestionRepository, sessions SessionRepository, answers AnswerRepository) *QuizService {
	return NewQuizServiceWithClock(questions, sessions, answers, time.Now)
}

// NewQuizServiceWithClock allows deterministic timestamps in tests.
func NewQuizServiceWithClock(questions QuestionRepository, sessions SessionRepository, answers AnswerRepository, now func() time.Time) *QuizService {
	return &QuizService{questions: questions, sessions: sessions, answers: answers, now: now}
}

// CreateQuestion validates and stores a new catalog question.
func (s *QuizService) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	difficulty, err := domain.ParseDifficulty(string(q.Difficulty))
	if err != nil {
		return domain.Question{}, err
	}
	q.Difficulty = difficulty
	q.Active = true
	q.CreatedAt = s.now()
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := s.questions.CreateQuestion(ctx, &q); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

// CreateQuestions stores a batch of questions. All entries are validated
// before anything is written.
func (s *QuizService) CreateQuestions(ctx context.Context, qs []domain.Question) ([]domain.Question, error) {
	created := make([]domain.Question, 0, len(qs))
	for _, q := range qs {
		difficulty, err := domain.ParseDifficulty(string(q.Difficulty))
		if err != nil {
			return nil, err
		}
		q.Difficulty = difficulty
		q.Active = true
		q.CreatedAt = s.now()
		if err := q.Validate(); err != nil {
			return nil, err
		}
		created = append(created, q)
	}
	for i := range created {
		if err := s.questions.CreateQuestion(ctx, &created[i]); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (s *QuizService) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return s.questions.GetQuestion(ctx, id)
}

// ListQuestions returns active questions matching the filter.
func (s *QuizService) ListQuestions(ctx context.Context, f domain.QuestionFilter) ([]domain.Question, error) {
	if f.Difficulty != "" {
		difficulty, err := domain.ParseDifficulty(string(f.Difficulty))
		if err != nil {
			return nil, err
		}
		f.Difficulty = difficulty
	}
	return s.questions.ListQuestions(ctx, f)
}

// UpdateQuestion applies a partial update. The patched question is validated
// as a whole, so changing Options and CorrectIndex together stays in bounds.
func (s *QuizService) UpdateQuestion(ctx context.Context, id int64, patch domain.QuestionPatch) (domain.Question, error) {
	q, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if patch.Prompt != nil {
		q.Prompt = *patch.Prompt
	}
	if patch.Options != nil {
		q.Options = patch.Options
	}
	if patch.CorrectIndex != nil {
		q.CorrectIndex = *patch.CorrectIndex
	}
	if patch.Explanation != nil {
		q.Explanation = *patch.Explanation
	}
	if patch.Category != nil {
		q.Category = *patch.Category
	}
	if patch.Difficulty != nil {
		difficulty, err := domain.ParseDifficulty(*patch.Difficulty)
		if err != nil {
			return domain.Question{}, err
		}
		q.Difficulty = difficulty
	}
	if patch.Active != nil {
		q.Active = *patch.Active
	}
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := s.questions.UpdateQuestion(ctx, &q); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

// DeactivateQuestion soft-deletes a question. Historical answers keep
// referencing it, so questions are never removed from the store.
func (s *QuizService) DeactivateQuestion(ctx context.Context, id int64) error {
	q, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if !q.Active {
		return nil
	}
	q.Active = false
	return s.questions.UpdateQuestion(ctx, &q)
}

// RandomQuestions samples n distinct questions from the active filtered pool.
func (s *QuizService) RandomQuestions(ctx context.Context, n int, f domain.QuestionFilter) ([]domain.Question, error) {
	f.Offset = 0
	f.Limit = 0
	pool, err := s.ListQuestions(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(pool) < n {
		return nil, domain.ErrNotEnoughQuestions
	}
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:n], nil
}

// StartSession creates a new session in the in_progress state.
func (s *QuizService) StartSession(ctx context.Context, userName string) (domain.QuizSession, error) {
	now := s.now()
	session := domain.QuizSession{
		UserName:  userName,
		StartedAt: now,
		State:     domain.SessionInProgress,
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, &session); err != nil {
		return domain.QuizSession{}, err
	}
	return session, nil
}

func (s *QuizService) GetSession(ctx context.Context, id int64) (domain.QuizSession, error) {
	return s.sessions.GetSession(ctx, id)
}

func (s *QuizService) ListSessions(ctx context.Context, f domain.SessionFilter) ([]domain.QuizSession, error) {
	return s.sessions.ListSessions(ctx, f)
}

// DeleteSession removes a session and its answers entirely.
func (s *QuizService) DeleteSession(ctx context.Context, id int64) error {
	if _, err := s.sessions.GetSession(ctx, id); err != nil {
		return err
	}
	return s.sessions.DeleteSession(ctx, id)
}

// AbandonSession is the management transition in_progress -> abandoned.
// Terminal sessions are returned unchanged.
func (s *QuizService) AbandonSession(ctx context.Context, id int64) (domain.QuizSession, error) {
	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return domain.QuizSession{}, err
	}
	if session.State != domain.SessionInProgress {
		return session, nil
	}
	now := s.now()
	session.State = domain.SessionAbandoned
	session.EndedAt = &now
	if err := s.sessions.SaveSession(ctx, &session); err != nil {
		return domain.QuizSession{}, err
	}
	return session, nil
}

// SubmitAnswer validates and records one answer. Preconditions are checked in
// order: session exists, question exists, index in range, no duplicate. The
// duplicate check and the insert are atomic inside the answer repository.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID, questionID int64, selectedIndex int, responseSeconds *int) (domain.Answer, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return domain.Answer{}, err
	}
	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Answer{}, err
	}
	if selectedIndex < 0 || selectedIndex >= len(question.Options) {
		return domain.Answer{}, domain.ErrIndexOutOfRange
	}
	if responseSeconds != nil && *responseSeconds < 0 {
		return domain.Answer{}, domain.ErrNegativeResponseTime
	}

	answer := domain.Answer{
		SessionID:       sessionID,
		QuestionID:      questionID,
		SelectedIndex:   selectedIndex,
		Correct:         selectedIndex == question.CorrectIndex,
		ResponseSeconds: responseSeconds,
		CreatedAt:       s.now(),
	}
	if err := s.answers.CreateAnswer(ctx, &answer); err != nil {
		return domain.Answer{}, err
	}
	return answer, nil
}

// UpdateAnswer corrects a recorded answer. A new selected index is validated
// against the owning question and correctness is re-derived.
func (s *QuizService) UpdateAnswer(ctx context.Context, answerID int64, newIndex, newSeconds *int) (domain.Answer, error) {
	answer, err := s.answers.GetAnswer(ctx, answerID)
	if err != nil {
		return domain.Answer{}, err
	}
	if newIndex != nil {
		question, err := s.questions.GetQuestion(ctx, answer.QuestionID)
		if err != nil {
			return domain.Answer{}, err
		}
		if *newIndex < 0 || *newIndex >= len(question.Options) {
			return domain.Answer{}, domain.ErrIndexOutOfRange
		}
		answer.SelectedIndex = *newIndex
		answer.Correct = *newIndex == question.CorrectIndex
	}
	if newSeconds != nil {
		if *newSeconds < 0 {
			return domain.Answer{}, domain.ErrNegativeResponseTime
		}
		answer.ResponseSeconds = newSeconds
	}
	if err := s.answers.UpdateAnswer(ctx, &answer); err != nil {
		return domain.Answer{}, err
	}
	return answer, nil
}

// SessionScore recomputes the score summary from the session's answers.
func (s *QuizService) SessionScore(ctx context.Context, sessionID int64) (domain.ScoreSummary, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return domain.ScoreSummary{}, err
	}
	answers, err := s.answers.ListAnswers(ctx, sessionID)
	if err != nil {
		return domain.ScoreSummary{}, err
	}

	summary := domain.ScoreSummary{SessionID: sessionID, Answered: len(answers)}
	var timed, totalSeconds int
	for _, a := range answers {
		if a.Correct {
			summary.Correct++
		}
		if a.ResponseSeconds != nil {
			timed++
			totalSeconds += *a.ResponseSeconds
		}
	}
	summary.Score = summary.Correct * domain.PointsPerCorrectAnswer
	if summary.Answered > 0 {
		summary.AccuracyPct = float64(summary.Correct) / float64(summary.Answered) * 100
	}
	if timed > 0 {
		summary.AvgResponseSeconds = round2(float64(totalSeconds) / float64(timed))
	}
	return summary, nil
}

// CompleteSession recomputes and freezes the session's score fields, marks it
// completed and stamps the end time. TotalSeconds is stored verbatim, nil
// included. Completing an already completed session recomputes from the same
// answer set and re-stamps the end time.
func (s *QuizService) CompleteSession(ctx context.Context, sessionID int64, totalSeconds *int) (domain.QuizSession, error) {
	summary, err := s.SessionScore(ctx, sessionID)
	if err != nil {
		return domain.QuizSession{}, err
	}
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.QuizSession{}, err
	}

	now := s.now()
	session.Score = summary.Score
	session.Answered = summary.Answered
	session.Correct = summary.Correct
	session.State = domain.SessionCompleted
	session.EndedAt = &now
	session.TotalSeconds = totalSeconds
	if err := s.sessions.SaveSession(ctx, &session); err != nil {
		return domain.QuizSession{}, err
	}
	return session, nil
}

// SessionAnswers returns the session's answers joined with question detail.
func (s *QuizService) SessionAnswers(ctx context.Context, sessionID int64) ([]domain.AnswerDetail, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	answers, err := s.answers.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	details := make([]domain.AnswerDetail, 0, len(answers))
	for _, a := range answers {
		detail, err := s.answerDetail(ctx, a)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

// AnswerDetail returns one answer joined with its question.
func (s *QuizService) AnswerDetail(ctx context.Context, answerID int64) (domain.AnswerDetail, error) {
	answer, err := s.answers.GetAnswer(ctx, answerID)
	if err != nil {
		return domain.AnswerDetail{}, err
	}
	return s.answerDetail(ctx, answer)
}

func (s *QuizService) answerDetail(ctx context.Context, a domain.Answer) (domain.AnswerDetail, error) {
	detail := domain.AnswerDetail{Answer: a}
	question, err := s.questions.GetQuestion(ctx, a.QuestionID)
	if err != nil {
		return domain.AnswerDetail{}, err
	}
	detail.Prompt = question.Prompt
	detail.Options = question.Options
	detail.CorrectIndex = question.CorrectIndex
	if a.SelectedIndex >= 0 && a.SelectedIndex < len(question.Options) {
		detail.SelectedText = question.Options[a.SelectedIndex]
	}
	return detail, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
