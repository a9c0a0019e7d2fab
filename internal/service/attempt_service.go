package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

// Attempt lifecycle errors, mapped to HTTP codes in the handlers.
var (
	ErrTestNotFound       = errors.New("test not found")
	ErrTestExpired        = errors.New("test link has expired")
	ErrAccessCodeRequired = errors.New("test access code is required")
	ErrAccessCodeInvalid  = errors.New("invalid test access code")
	ErrAlreadyAttempted   = errors.New("test already attempted")
	ErrAttemptNotFound    = errors.New("attempt not found")
)

const (
	msgSubmitted     = "Test submitted successfully"
	msgAutoSubmitted = "Time over. Test auto-submitted"
)

// AttemptService owns the attempt lifecycle: the start gate, the resumable
// state read, and idempotent finalization with scoring. Timing is always
// recomputed from the stored started_at; the client clock is never trusted.
type AttemptService struct {
	testRepo     *repository.TestRepository
	questionRepo *repository.QuestionRepository
	attemptRepo  *repository.AttemptRepository
	answerRepo   *repository.AnswerRepository
	log          zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	testRepo *repository.TestRepository,
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		log:          log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start resolves the test by public token, enforces expiry and access code
// gates, and creates the attempt. started_at comes from the database clock.
// A repeat start by the same candidate fails with ErrAlreadyAttempted.
func (s *AttemptService) Start(ctx context.Context, req *model.StartAttemptRequest) (*model.Attempt, error) {
	test, err := s.testRepo.GetByPublicToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	if test.Expired(time.Now()) {
		return nil, ErrTestExpired
	}

	// The access code is only ever compared against its salted hash.
	if test.RequiresAccessCode() {
		if req.AccessCode == "" {
			return nil, ErrAccessCodeRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*test.AccessCodeHash), []byte(req.AccessCode)); err != nil {
			return nil, ErrAccessCodeInvalid
		}
	}

	attempt := &model.Attempt{
		TestID:         test.ID,
		CandidateName:  req.Name,
		CandidateEmail: req.Email,
	}

	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyAttempted
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("test_id", test.ID.String()).
		Msg("Attempt started")

	return attempt, nil
}

// GetState returns everything a client needs to enter or resume the exam:
// duration, the original started_at, completion status, proctoring settings,
// the question set without correct options, and previously saved answers.
func (s *AttemptService) GetState(ctx context.Context, attemptID uuid.UUID) (*model.AttemptState, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	test, err := s.testRepo.GetByID(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	questions, err := s.questionRepo.ListByTest(ctx, test.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if answers == nil {
		answers = []model.SavedAnswer{}
	}

	candidateQuestions := make([]model.QuestionForCandidate, 0, len(questions))
	for i := range questions {
		candidateQuestions = append(candidateQuestions, questions[i].ForCandidate())
	}

	remaining := time.Until(attempt.StartedAt.Add(time.Duration(test.DurationMinutes) * time.Minute))
	if remaining < 0 || attempt.Completed() {
		remaining = 0
	}

	return &model.AttemptState{
		Duration:                test.DurationMinutes,
		StartedAt:               attempt.StartedAt,
		CompletedAt:             attempt.CompletedAt,
		AutoSubmitOnGraceExpire: test.AutoSubmitOnGraceExpire,
		MaxViolations:           test.MaxViolations,
		GraceSeconds:            test.GraceSeconds,
		RemainingSeconds:        int64(remaining.Seconds()),
		Questions:               candidateQuestions,
		Answers:                 answers,
	}, nil
}

// Submit finalizes an attempt. It is idempotent: a completed attempt replays
// its stored result without re-scoring. Otherwise it runs in a single
// transaction holding the attempt row lock, so concurrent submits serialize
// and exactly one of them scores.
//
// Client answers are persisted only when the exam window has not elapsed;
// late payloads are silently discarded so the candidate cannot extend their
// own time by delaying the submit call.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, clientAnswers []model.SubmittedAnswer) (*model.SubmitResult, error) {
	tx, err := s.attemptRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	attempt, err := s.attemptRepo.GetByIDForUpdate(ctx, tx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("lock attempt: %w", err)
	}

	if attempt.Completed() {
		return replayResult(attempt), nil
	}

	test, err := s.testRepo.GetByID(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	now := time.Now()
	timeOver := IsTimeOver(attempt.StartedAt, now, test.DurationMinutes)

	if !timeOver {
		for _, a := range clientAnswers {
			if err := s.answerRepo.UpsertTx(ctx, tx, attemptID, a.QuestionID, a.SelectedOption); err != nil {
				return nil, fmt.Errorf("upsert answer: %w", err)
			}
		}
	}

	key, err := s.questionRepo.AnswerKeyTx(ctx, tx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("answer key: %w", err)
	}

	stored, err := s.answerRepo.ListByAttemptTx(ctx, tx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	score := ScoreAnswers(stored, key)
	total := len(key)
	timeTaken := TimeTakenMinutes(attempt.StartedAt, now, test.DurationMinutes)

	if _, err := s.attemptRepo.CompleteTx(ctx, tx, attemptID, score, total, timeTaken, timeOver); err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("score", score).
		Int("total", total).
		Bool("auto", timeOver).
		Msg("Attempt finalized")

	msg := msgSubmitted
	if timeOver {
		msg = msgAutoSubmitted
	}

	return &model.SubmitResult{
		Message:          msg,
		Score:            score,
		Total:            total,
		TimeTakenMinutes: timeTaken,
		AutoSubmitted:    timeOver,
	}, nil
}

// replayResult rebuilds the original SubmitResult from the stored columns of
// a completed attempt. No scoring side effects occur on this path.
func replayResult(a *model.Attempt) *model.SubmitResult {
	res := &model.SubmitResult{Message: msgSubmitted}
	if a.Score != nil {
		res.Score = *a.Score
	}
	if a.Total != nil {
		res.Total = *a.Total
	}
	if a.TimeTakenMinutes != nil {
		res.TimeTakenMinutes = *a.TimeTakenMinutes
	}
	if a.AutoSubmitted != nil && *a.AutoSubmitted {
		res.AutoSubmitted = true
		res.Message = msgAutoSubmitted
	}
	return res
}
