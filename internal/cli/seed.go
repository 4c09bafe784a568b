package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/config"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/infra/postgres"
)

// NewSeedCmd loads a small sample catalog for local development.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample questions into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	repo := postgres.NewRepository(db)
	service := app.NewQuizService(repo, repo, repo)

	created, err := service.CreateQuestions(ctx, sampleQuestions())
	if err != nil {
		return err
	}
	log.Printf("seeded %d questions", len(created))
	return nil
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Prompt:       "What is the capital of France?",
			Options:      []string{"Madrid", "Paris", "Rome", "Berlin"},
			CorrectIndex: 1,
			Explanation:  "Paris has been the capital of France since 987.",
			Category:     "geography",
			Difficulty:   domain.DifficultyEasy,
		},
		{
			Prompt:       "Which planet is known as the Red Planet?",
			Options:      []string{"Venus", "Jupiter", "Mars"},
			CorrectIndex: 2,
			Category:     "science",
			Difficulty:   domain.DifficultyEasy,
		},
		{
			Prompt:       "What is the time complexity of binary search?",
			Options:      []string{"O(n)", "O(log n)", "O(n log n)", "O(1)"},
			CorrectIndex: 1,
			Explanation:  "Each comparison halves the remaining search space.",
			Category:     "computer-science",
			Difficulty:   domain.DifficultyMedium,
		},
		{
			Prompt:       "In which year did the Berlin Wall fall?",
			Options:      []string{"1987", "1989", "1991", "1993"},
			CorrectIndex: 1,
			Category:     "history",
			Difficulty:   domain.DifficultyMedium,
		},
		{
			Prompt:       "Which element has the highest electronegativity?",
			Options:      []string{"Oxygen", "Chlorine", "Fluorine", "Nitrogen", "Neon"},
			CorrectIndex: 2,
			Explanation:  "Fluorine tops the Pauling scale at 3.98.",
			Category:     "science",
			Difficulty:   domain.DifficultyHard,
		},
	}
}
