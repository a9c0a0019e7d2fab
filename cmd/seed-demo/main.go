package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/database"
	"github.com/invigo/invigo-backend/internal/logger"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
	"github.com/invigo/invigo-backend/internal/service"
)

// Seeds one demo test with a small question set, for local development and
// manual QA of the candidate flow.
func main() {
	var accessCode string
	var duration int
	flag.StringVar(&accessCode, "access-code", "", "Optional access code for the demo test")
	flag.IntVar(&duration, "duration", 30, "Test duration in minutes")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	testRepo := repository.NewTestRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	testService := service.NewTestService(testRepo, questionRepo, attemptRepo, violationRepo, rdb, cfg, log)

	expiresAt := time.Now().Add(7 * 24 * time.Hour)
	req := &model.CreateTestRequest{
		Title:           "Demo General Knowledge Test",
		DurationMinutes: duration,
		ExpiresAt:       &expiresAt,
		AccessCode:      accessCode,
		Questions: []model.CreateQuestionRequest{
			{
				Text:          "Which planet is known as the Red Planet?",
				OptionA:       "Venus",
				OptionB:       "Mars",
				OptionC:       "Jupiter",
				OptionD:       "Saturn",
				CorrectOption: "B",
			},
			{
				Text:          "What is the chemical symbol for gold?",
				OptionA:       "Au",
				OptionB:       "Ag",
				OptionC:       "Gd",
				OptionD:       "Go",
				CorrectOption: "A",
			},
			{
				Text:          "How many continents are there on Earth?",
				OptionA:       "Five",
				OptionB:       "Six",
				OptionC:       "Seven",
				OptionD:       "Eight",
				CorrectOption: "C",
			},
		},
	}

	test, err := testService.Create(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed demo test")
	}

	fmt.Printf("Demo test created\n")
	fmt.Printf("  id:    %s\n", test.ID)
	fmt.Printf("  token: %s\n", test.PublicToken)
	fmt.Printf("  link:  /api/v1/public/test/%s\n", test.PublicToken)
	if accessCode != "" {
		fmt.Printf("  code:  %s\n", accessCode)
	}
}
