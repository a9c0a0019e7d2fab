package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

// TestService manages tests: the cached public payload for candidates and the
// admin-facing create/list/result operations.
type TestService struct {
	testRepo      *repository.TestRepository
	questionRepo  *repository.QuestionRepository
	attemptRepo   *repository.AttemptRepository
	violationRepo *repository.ViolationRepository
	rdb           *redis.Client
	cfg           *config.Config
	log           zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(
	testRepo *repository.TestRepository,
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.AttemptRepository,
	violationRepo *repository.ViolationRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *TestService {
	return &TestService{
		testRepo:      testRepo,
		questionRepo:  questionRepo,
		attemptRepo:   attemptRepo,
		violationRepo: violationRepo,
		rdb:           rdb,
		cfg:           cfg,
		log:           log.With().Str("component", "test_service").Logger(),
	}
}

const publicTestCacheTTL = 5 * time.Minute

// GetPublicTest returns the candidate-safe payload for a test token, serving
// from the Redis cache when possible. Expiry is always re-checked against the
// current clock, so a cached payload cannot outlive the test link.
func (s *TestService) GetPublicTest(ctx context.Context, token string) (*model.PublicTestPayload, error) {
	test, err := s.testRepo.GetByPublicToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	if test.Expired(time.Now()) {
		return nil, ErrTestExpired
	}

	cacheKey := config.CacheKey.PublicTestKey(token)
	if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
		payload := &model.PublicTestPayload{}
		if err := json.Unmarshal([]byte(cached), payload); err == nil {
			return payload, nil
		}
		// Corrupt cache entry — fall through and rebuild.
		s.rdb.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Public test cache read failed")
	}

	payload, err := s.buildPublicPayload(ctx, test)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(payload); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, data, publicTestCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Public test cache write failed")
		}
	}

	return payload, nil
}

func (s *TestService) buildPublicPayload(ctx context.Context, test *model.Test) (*model.PublicTestPayload, error) {
	questions, err := s.questionRepo.ListByTest(ctx, test.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	candidateQuestions := make([]model.QuestionForCandidate, 0, len(questions))
	for i := range questions {
		candidateQuestions = append(candidateQuestions, questions[i].ForCandidate())
	}

	return &model.PublicTestPayload{
		TestID:             test.ID,
		Title:              test.Title,
		Duration:           test.DurationMinutes,
		RequiresAccessCode: test.RequiresAccessCode(),
		Questions:          candidateQuestions,
	}, nil
}

// PrewarmPublicCaches loads every test's public payload into Redis. Called at
// boot before the server accepts traffic.
func (s *TestService) PrewarmPublicCaches(ctx context.Context) error {
	tokens, err := s.testRepo.ListTokens(ctx)
	if err != nil {
		return fmt.Errorf("list tokens: %w", err)
	}

	warmed := 0
	for _, token := range tokens {
		if _, err := s.GetPublicTest(ctx, token); err != nil {
			if errors.Is(err, ErrTestExpired) {
				continue
			}
			s.log.Warn().Err(err).Str("token", token).Msg("Prewarm failed for test")
			continue
		}
		warmed++
	}

	s.log.Info().Int("count", warmed).Msg("Public test caches prewarmed")
	return nil
}

// Create builds a test with its questions in one transaction. The public
// token is generated server-side; the access code is stored only as a bcrypt
// hash.
func (s *TestService) Create(ctx context.Context, req *model.CreateTestRequest) (*model.Test, error) {
	test := &model.Test{
		PublicToken:             strings.ReplaceAll(uuid.New().String(), "-", ""),
		Title:                   req.Title,
		DurationMinutes:         req.DurationMinutes,
		ExpiresAt:               req.ExpiresAt,
		AutoSubmitOnGraceExpire: req.AutoSubmitOnGraceExpire,
		MaxViolations:           s.cfg.DefaultMaxViolations,
		GraceSeconds:            s.cfg.DefaultGraceSeconds,
	}
	if req.MaxViolations != nil {
		test.MaxViolations = *req.MaxViolations
	}
	if req.GraceSeconds != nil {
		test.GraceSeconds = *req.GraceSeconds
	}

	if req.AccessCode != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.AccessCode), s.cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash access code: %w", err)
		}
		h := string(hash)
		test.AccessCodeHash = &h
	}

	tx, err := s.testRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.testRepo.CreateTx(ctx, tx, test); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}

	if err := s.questionRepo.InsertManyTx(ctx, tx, test.ID, req.Questions); err != nil {
		return nil, fmt.Errorf("insert questions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.log.Info().
		Str("test_id", test.ID.String()).
		Int("questions", len(req.Questions)).
		Msg("Test created")

	return test, nil
}

// List returns all tests for the admin overview.
func (s *TestService) List(ctx context.Context) ([]model.Test, error) {
	return s.testRepo.List(ctx)
}

// Results returns all attempts for a test.
func (s *TestService) Results(ctx context.Context, testID uuid.UUID) ([]model.Attempt, error) {
	if _, err := s.testRepo.GetByID(ctx, testID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return s.attemptRepo.ListByTest(ctx, testID)
}

// Violations returns the violation log across a test's attempts.
func (s *TestService) Violations(ctx context.Context, testID uuid.UUID) ([]model.Violation, error) {
	if _, err := s.testRepo.GetByID(ctx, testID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return s.violationRepo.ListByTest(ctx, testID)
}
