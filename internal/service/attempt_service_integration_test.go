package service

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

// Integration tests against a real PostgreSQL. Skipped unless
// TEST_DATABASE_URL is set; the schema must already be migrated.

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// seedTest inserts a test with three questions and returns it with the
// correct options of the first two questions.
func seedTest(t *testing.T, pool *pgxpool.Pool, accessCode string) (*model.Test, []model.Question) {
	t.Helper()
	ctx := context.Background()

	testRepo := repository.NewTestRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	test := &model.Test{
		PublicToken:     uuid.New().String(),
		Title:           "Integration Test",
		DurationMinutes: 30,
		MaxViolations:   3,
		GraceSeconds:    30,
	}
	if accessCode != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(accessCode), bcrypt.MinCost)
		require.NoError(t, err)
		h := string(hash)
		test.AccessCodeHash = &h
	}

	tx, err := testRepo.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, testRepo.CreateTx(ctx, tx, test))
	require.NoError(t, questionRepo.InsertManyTx(ctx, tx, test.ID, []model.CreateQuestionRequest{
		{Text: "Q1", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: "A"},
		{Text: "Q2", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: "B"},
		{Text: "Q3", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: "C"},
	}))
	require.NoError(t, tx.Commit(ctx))

	questions, err := questionRepo.ListByTest(ctx, test.ID)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	return test, questions
}

func newServices(pool *pgxpool.Pool) (*AttemptService, *AnswerService) {
	testRepo := repository.NewTestRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)

	return NewAttemptService(testRepo, questionRepo, attemptRepo, answerRepo, zerolog.Nop()),
		NewAnswerService(attemptRepo, answerRepo)
}

func TestAttemptLifecycleIntegration(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	test, questions := seedTest(t, pool, "482913")
	attemptService, answerService := newServices(pool)

	email := fmt.Sprintf("candidate-%s@example.com", uuid.New())

	// Access code gate.
	_, err := attemptService.Start(ctx, &model.StartAttemptRequest{
		Token: test.PublicToken, Name: "IT Candidate", Email: email,
	})
	assert.ErrorIs(t, err, ErrAccessCodeRequired)

	_, err = attemptService.Start(ctx, &model.StartAttemptRequest{
		Token: test.PublicToken, Name: "IT Candidate", Email: email, AccessCode: "000000",
	})
	assert.ErrorIs(t, err, ErrAccessCodeInvalid)

	attempt, err := attemptService.Start(ctx, &model.StartAttemptRequest{
		Token: test.PublicToken, Name: "IT Candidate", Email: email, AccessCode: "482913",
	})
	require.NoError(t, err)
	assert.False(t, attempt.StartedAt.IsZero())

	// Duplicate start conflicts on (test_id, candidate_email).
	_, err = attemptService.Start(ctx, &model.StartAttemptRequest{
		Token: test.PublicToken, Name: "IT Candidate", Email: email, AccessCode: "482913",
	})
	assert.ErrorIs(t, err, ErrAlreadyAttempted)

	// Answer two of three: one correct, one wrong.
	require.NoError(t, answerService.Save(ctx, &model.SaveAnswerRequest{
		AttemptID: attempt.ID, QuestionID: questions[0].ID, SelectedOption: "A",
	}))
	require.NoError(t, answerService.Save(ctx, &model.SaveAnswerRequest{
		AttemptID: attempt.ID, QuestionID: questions[1].ID, SelectedOption: "D",
	}))

	// Last write wins on re-save.
	require.NoError(t, answerService.Save(ctx, &model.SaveAnswerRequest{
		AttemptID: attempt.ID, QuestionID: questions[1].ID, SelectedOption: "B",
	}))

	// Resume view: startedAt unchanged, answers restored.
	state, err := attemptService.GetState(ctx, attempt.ID)
	require.NoError(t, err)
	assert.True(t, state.StartedAt.Equal(attempt.StartedAt))
	assert.Len(t, state.Answers, 2)
	assert.Len(t, state.Questions, 3)

	// Submit scores the stored answers against all three questions.
	result, err := attemptService.Submit(ctx, attempt.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 3, result.Total)
	assert.False(t, result.AutoSubmitted)

	// Repeat submit replays the stored result without re-scoring.
	again, err := attemptService.Submit(ctx, attempt.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, result.Score, again.Score)
	assert.Equal(t, result.Total, again.Total)
	assert.Equal(t, result.TimeTakenMinutes, again.TimeTakenMinutes)

	// Writes after completion are rejected.
	err = answerService.Save(ctx, &model.SaveAnswerRequest{
		AttemptID: attempt.ID, QuestionID: questions[2].ID, SelectedOption: "C",
	})
	assert.ErrorIs(t, err, ErrInvalidAttempt)
}

func TestConcurrentSubmitsScoreOnce(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	test, questions := seedTest(t, pool, "")
	attemptService, answerService := newServices(pool)

	attempt, err := attemptService.Start(ctx, &model.StartAttemptRequest{
		Token: test.PublicToken, Name: "Racer", Email: fmt.Sprintf("racer-%s@example.com", uuid.New()),
	})
	require.NoError(t, err)

	require.NoError(t, answerService.Save(ctx, &model.SaveAnswerRequest{
		AttemptID: attempt.ID, QuestionID: questions[0].ID, SelectedOption: "A",
	}))

	// Race several submits; the row lock serializes them and all observers
	// see the same result.
	const racers = 4
	results := make(chan *model.SubmitResult, racers)
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		go func() {
			res, err := attemptService.Submit(ctx, attempt.ID, nil)
			results <- res
			errs <- err
		}()
	}

	var first *model.SubmitResult
	for i := 0; i < racers; i++ {
		require.NoError(t, <-errs)
		res := <-results
		require.NotNil(t, res)
		if first == nil {
			first = res
		}
		assert.Equal(t, first.Score, res.Score)
		assert.Equal(t, first.Total, res.Total)
		assert.Equal(t, first.TimeTakenMinutes, res.TimeTakenMinutes)
	}

	// The row records exactly one completion.
	state, err := attemptService.GetState(ctx, attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, state.CompletedAt)
}
