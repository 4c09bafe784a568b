package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-scoring-service/internal/domain"
)

type answerKey struct {
	sessionID  int64
	questionID int64
}

// Repository is an in-memory implementation of the full app storage surface.
// A single mutex serializes every operation, which also makes the duplicate
// check and insert for an answer pair atomic.
type Repository struct {
	mu sync.RWMutex

	questions map[int64]domain.Question
	sessions  map[int64]domain.QuizSession
	answers   map[int64]domain.Answer
	byPair    map[answerKey]int64

	nextQuestionID int64
	nextSessionID  int64
	nextAnswerID   int64
}

func NewRepository() *Repository {
	return &Repository{
		questions: make(map[int64]domain.Question),
		sessions:  make(map[int64]domain.QuizSession),
		answers:   make(map[int64]domain.Answer),
		byPair:    make(map[answerKey]int64),
	}
}

func (r *Repository) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	question, ok := r.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (r *Repository) ListQuestions(_ context.Context, f domain.QuestionFilter) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Question, 0)
	for _, q := range r.questions {
		if !q.Active {
			continue
		}
		if f.Category != "" && q.Category != f.Category {
			continue
		}
		if f.Difficulty != "" && q.Difficulty != f.Difficulty {
			continue
		}
		matched = append(matched, q)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return page(matched, f.Offset, f.Limit), nil
}

func (r *Repository) CreateQuestion(_ context.Context, q *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextQuestionID++
	q.ID = r.nextQuestionID
	r.questions[q.ID] = *q
	return nil
}

func (r *Repository) UpdateQuestion(_ context.Context, q *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[q.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	r.questions[q.ID] = *q
	return nil
}

func (r *Repository) CountActiveQuestions(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, q := range r.questions {
		if q.Active {
			count++
		}
	}
	return count, nil
}

func (r *Repository) CountActiveQuestionsByCategory(_ context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, q := range r.questions {
		if q.Active {
			counts[q.Category]++
		}
	}
	return counts, nil
}

func (r *Repository) GetSession(_ context.Context, id int64) (domain.QuizSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (r *Repository) CreateSession(_ context.Context, s *domain.QuizSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSessionID++
	s.ID = r.nextSessionID
	r.sessions[s.ID] = *s
	return nil
}

func (r *Repository) SaveSession(_ context.Context, s *domain.QuizSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *Repository) DeleteSession(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.sessions, id)
	for answerID, a := range r.answers {
		if a.SessionID == id {
			delete(r.answers, answerID)
			delete(r.byPair, answerKey{a.SessionID, a.QuestionID})
		}
	}
	return nil
}

func (r *Repository) ListSessions(_ context.Context, f domain.SessionFilter) ([]domain.QuizSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]domain.QuizSession, 0)
	for _, s := range r.sessions {
		if f.State != "" && s.State != f.State {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return page(matched, f.Offset, f.Limit), nil
}

func (r *Repository) GetAnswer(_ context.Context, id int64) (domain.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	answer, ok := r.answers[id]
	if !ok {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	return answer, nil
}

func (r *Repository) FindAnswer(_ context.Context, sessionID, questionID int64) (domain.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[answerKey{sessionID, questionID}]
	if !ok {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	return r.answers[id], nil
}

func (r *Repository) ListAnswers(_ context.Context, sessionID int64) ([]domain.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]domain.Answer, 0)
	for _, a := range r.answers {
		if a.SessionID == sessionID {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

func (r *Repository) CreateAnswer(_ context.Context, a *domain.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := answerKey{a.SessionID, a.QuestionID}
	if _, ok := r.byPair[key]; ok {
		return domain.ErrDuplicateAnswer
	}
	r.nextAnswerID++
	a.ID = r.nextAnswerID
	r.answers[a.ID] = *a
	r.byPair[key] = a.ID
	return nil
}

func (r *Repository) UpdateAnswer(_ context.Context, a *domain.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.answers[a.ID]; !ok {
		return domain.ErrAnswerNotFound
	}
	r.answers[a.ID] = *a
	return nil
}

func (r *Repository) CategoryAnswerRows(_ context.Context) ([]domain.CategoryAnswerRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := make([]domain.CategoryAnswerRow, 0, len(r.answers))
	for _, a := range r.answersInOrder() {
		question, ok := r.questions[a.QuestionID]
		if !ok {
			continue
		}
		rows = append(rows, domain.CategoryAnswerRow{Category: question.Category, Correct: a.Correct})
	}
	return rows, nil
}

func (r *Repository) QuestionAnswerRows(_ context.Context) ([]domain.QuestionAnswerRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := make([]domain.QuestionAnswerRow, 0, len(r.answers))
	for _, a := range r.answersInOrder() {
		rows = append(rows, domain.QuestionAnswerRow{QuestionID: a.QuestionID, Correct: a.Correct})
	}
	return rows, nil
}

func (r *Repository) CompletedAnswerCorrectness(_ context.Context) ([]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	flags := make([]bool, 0)
	for _, a := range r.answersInOrder() {
		session, ok := r.sessions[a.SessionID]
		if !ok || session.State != domain.SessionCompleted {
			continue
		}
		flags = append(flags, a.Correct)
	}
	return flags, nil
}

func (r *Repository) CountCompletedSessions(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, s := range r.sessions {
		if s.State == domain.SessionCompleted {
			count++
		}
	}
	return count, nil
}

// answersInOrder returns answers sorted by id so scans are deterministic.
// Callers must hold at least the read lock.
func (r *Repository) answersInOrder() []domain.Answer {
	answers := make([]domain.Answer, 0, len(r.answers))
	for _, a := range r.answers {
		answers = append(answers, a)
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	return answers
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
