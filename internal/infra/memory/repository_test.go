package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-scoring-service/internal/domain"
)

func seedQuestion(t *testing.T, repo *Repository) domain.Question {
	t.Helper()
	q := domain.Question{
		Prompt:       "Pick B",
		Options:      []string{"A", "B", "C"},
		CorrectIndex: 1,
		Category:     "general",
		Difficulty:   domain.DifficultyEasy,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := repo.CreateQuestion(context.Background(), &q); err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

func seedSession(t *testing.T, repo *Repository) domain.QuizSession {
	t.Helper()
	s := domain.QuizSession{State: domain.SessionInProgress, StartedAt: time.Now()}
	if err := repo.CreateSession(context.Background(), &s); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func TestCreateAnswerRejectsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	question := seedQuestion(t, repo)
	session := seedSession(t, repo)

	first := domain.Answer{SessionID: session.ID, QuestionID: question.ID, SelectedIndex: 1, Correct: true}
	if err := repo.CreateAnswer(ctx, &first); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	second := domain.Answer{SessionID: session.ID, QuestionID: question.ID, SelectedIndex: 0}
	if err := repo.CreateAnswer(ctx, &second); !errors.Is(err, domain.ErrDuplicateAnswer) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestCreateAnswerRaceHasOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	question := seedQuestion(t, repo)
	session := seedSession(t, repo)

	const racers = 16
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			a := domain.Answer{SessionID: session.ID, QuestionID: question.ID, SelectedIndex: index % 3}
			results <- repo.CreateAnswer(ctx, &a)
		}(i)
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
		} else if !errors.Is(err, domain.ErrDuplicateAnswer) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestDeleteSessionCascadesAnswers(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	question := seedQuestion(t, repo)
	session := seedSession(t, repo)

	a := domain.Answer{SessionID: session.ID, QuestionID: question.ID, SelectedIndex: 1, Correct: true}
	if err := repo.CreateAnswer(ctx, &a); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.GetAnswer(ctx, a.ID); !errors.Is(err, domain.ErrAnswerNotFound) {
		t.Fatalf("expected answer gone, got %v", err)
	}
	// The pair is free for a fresh session with the same question.
	fresh := seedSession(t, repo)
	b := domain.Answer{SessionID: fresh.ID, QuestionID: question.ID, SelectedIndex: 0}
	if err := repo.CreateAnswer(ctx, &b); err != nil {
		t.Fatalf("reinsert after cascade: %v", err)
	}
}

func TestListQuestionsFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	for i := 0; i < 5; i++ {
		q := domain.Question{
			Prompt:       "Q",
			Options:      []string{"A", "B", "C"},
			CorrectIndex: 0,
			Category:     "science",
			Difficulty:   domain.DifficultyEasy,
			Active:       true,
		}
		if i >= 3 {
			q.Category = "history"
			q.Difficulty = domain.DifficultyHard
		}
		if err := repo.CreateQuestion(ctx, &q); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	science, err := repo.ListQuestions(ctx, domain.QuestionFilter{Category: "science"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(science) != 3 {
		t.Fatalf("expected 3 science questions, got %d", len(science))
	}

	hard, err := repo.ListQuestions(ctx, domain.QuestionFilter{Difficulty: domain.DifficultyHard})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(hard) != 2 {
		t.Fatalf("expected 2 hard questions, got %d", len(hard))
	}

	paged, err := repo.ListQuestions(ctx, domain.QuestionFilter{Offset: 4, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paged) != 1 {
		t.Fatalf("expected 1 question past offset 4, got %d", len(paged))
	}

	past, err := repo.ListQuestions(ctx, domain.QuestionFilter{Offset: 50})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(past) != 0 {
		t.Fatalf("expected empty page, got %d", len(past))
	}
}

func TestStatsScansKeepInsertOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	q1 := seedQuestion(t, repo)
	q2 := seedQuestion(t, repo)
	session := seedSession(t, repo)

	for _, questionID := range []int64{q2.ID, q1.ID} {
		a := domain.Answer{SessionID: session.ID, QuestionID: questionID, SelectedIndex: 1, Correct: true}
		if err := repo.CreateAnswer(ctx, &a); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := repo.QuestionAnswerRows(ctx)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[0].QuestionID != q2.ID || rows[1].QuestionID != q1.ID {
		t.Fatalf("expected insert order preserved, got %+v", rows)
	}
}
