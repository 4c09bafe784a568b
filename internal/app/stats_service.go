package app

import (
	"context"
	"errors"
	"sort"

	"quiz-scoring-service/internal/domain"
)

// DefaultDifficultLimit caps the difficult-questions report when the caller
// does not supply a limit.
const DefaultDifficultLimit = 10

const hardestCategoriesLimit = 5

// StatsService derives the three history reports. Every report is a fresh
// scan of stored state; nothing is cached between calls.
type StatsService struct {
	questions QuestionRepository
	stats     StatsRepository
}

func NewStatsService(questions QuestionRepository, stats StatsRepository) *StatsService {
	return &StatsService{questions: questions, stats: stats}
}

type tally struct {
	total   int
	correct int
}

func (t tally) accuracyPct() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.correct) / float64(t.total) * 100
}

// Global returns the system-wide summary: active question count, completed
// session count, overall accuracy over answers of completed sessions, and
// the five categories with the highest error rate.
func (s *StatsService) Global(ctx context.Context) (domain.GlobalSummary, error) {
	summary := domain.GlobalSummary{HardestCategories: []domain.CategoryDifficulty{}}

	active, err := s.questions.CountActiveQuestions(ctx)
	if err != nil {
		return domain.GlobalSummary{}, err
	}
	summary.ActiveQuestions = active

	completed, err := s.stats.CountCompletedSessions(ctx)
	if err != nil {
		return domain.GlobalSummary{}, err
	}
	summary.CompletedSessions = completed

	correctness, err := s.stats.CompletedAnswerCorrectness(ctx)
	if err != nil {
		return domain.GlobalSummary{}, err
	}
	var correct int
	for _, ok := range correctness {
		if ok {
			correct++
		}
	}
	if len(correctness) > 0 {
		summary.OverallAccuracyPct = round2(float64(correct) / float64(len(correctness)) * 100)
	}

	rows, err := s.stats.CategoryAnswerRows(ctx)
	if err != nil {
		return domain.GlobalSummary{}, err
	}
	categories, tallies := tallyByCategory(rows)
	for _, category := range categories {
		t := tallies[category]
		accuracy := t.accuracyPct()
		summary.HardestCategories = append(summary.HardestCategories, domain.CategoryDifficulty{
			Category:    category,
			AccuracyPct: accuracy,
			ErrorPct:    100 - accuracy,
		})
	}
	// Ties keep first-appearance order from the scan.
	sort.SliceStable(summary.HardestCategories, func(i, j int) bool {
		return summary.HardestCategories[i].ErrorPct > summary.HardestCategories[j].ErrorPct
	})
	if len(summary.HardestCategories) > hardestCategoriesLimit {
		summary.HardestCategories = summary.HardestCategories[:hardestCategoriesLimit]
	}
	return summary, nil
}

// DifficultQuestions ranks answered questions by descending error rate.
// Questions with no recorded answers never appear.
func (s *StatsService) DifficultQuestions(ctx context.Context, limit int) ([]domain.QuestionDifficulty, error) {
	if limit <= 0 {
		limit = DefaultDifficultLimit
	}
	rows, err := s.stats.QuestionAnswerRows(ctx)
	if err != nil {
		return nil, err
	}

	order := make([]int64, 0)
	tallies := make(map[int64]*tally)
	for _, row := range rows {
		t, ok := tallies[row.QuestionID]
		if !ok {
			t = &tally{}
			tallies[row.QuestionID] = t
			order = append(order, row.QuestionID)
		}
		t.total++
		if row.Correct {
			t.correct++
		}
	}

	result := make([]domain.QuestionDifficulty, 0, len(order))
	for _, id := range order {
		question, err := s.questions.GetQuestion(ctx, id)
		if errors.Is(err, domain.ErrQuestionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		t := tallies[id]
		accuracy := round2(t.accuracyPct())
		result = append(result, domain.QuestionDifficulty{
			QuestionID:  id,
			Prompt:      question.Prompt,
			Category:    question.Category,
			Difficulty:  question.Difficulty,
			Answered:    t.total,
			Correct:     t.correct,
			Incorrect:   t.total - t.correct,
			AccuracyPct: accuracy,
			ErrorPct:    round2(100 - t.accuracyPct()),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ErrorPct > result[j].ErrorPct
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CategoryPerformance reports per-category accuracy over all answers, sorted
// by descending accuracy. Categories with no answers are skipped.
func (s *StatsService) CategoryPerformance(ctx context.Context) ([]domain.CategoryPerformance, error) {
	rows, err := s.stats.CategoryAnswerRows(ctx)
	if err != nil {
		return nil, err
	}
	categories, tallies := tallyByCategory(rows)

	activeByCategory, err := s.questions.CountActiveQuestionsByCategory(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.CategoryPerformance, 0, len(categories))
	for _, category := range categories {
		t := tallies[category]
		result = append(result, domain.CategoryPerformance{
			Category:        category,
			ActiveQuestions: activeByCategory[category],
			Answered:        t.total,
			Correct:         t.correct,
			Errors:          t.total - t.correct,
			AccuracyPct:     round2(t.accuracyPct()),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AccuracyPct > result[j].AccuracyPct
	})
	return result, nil
}

// tallyByCategory folds scan rows into per-category tallies, keeping the
// order categories first appear in.
func tallyByCategory(rows []domain.CategoryAnswerRow) ([]string, map[string]*tally) {
	order := make([]string, 0)
	tallies := make(map[string]*tally)
	for _, row := range rows {
		t, ok := tallies[row.Category]
		if !ok {
			t = &tally{}
			tallies[row.Category] = t
			order = append(order, row.Category)
		}
		t.total++
		if row.Correct {
			t.correct++
		}
	}
	return order, tallies
}
