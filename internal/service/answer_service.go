package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

// ErrInvalidAttempt is returned when saving against a missing or completed attempt.
var ErrInvalidAttempt = errors.New("invalid or completed test attempt")

// AnswerService is the autosave write path: upsert keyed by
// (attemptId, questionId), rejected once the attempt is terminal.
type AnswerService struct {
	attemptRepo *repository.AttemptRepository
	answerRepo  *repository.AnswerRepository
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(attemptRepo *repository.AttemptRepository, answerRepo *repository.AnswerRepository) *AnswerService {
	return &AnswerService{attemptRepo: attemptRepo, answerRepo: answerRepo}
}

// Save upserts a single answer for an open attempt.
func (s *AnswerService) Save(ctx context.Context, req *model.SaveAnswerRequest) error {
	attempt, err := s.attemptRepo.GetByID(ctx, req.AttemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidAttempt
		}
		return fmt.Errorf("get attempt: %w", err)
	}

	if attempt.Completed() {
		return ErrInvalidAttempt
	}

	if err := s.answerRepo.Upsert(ctx, req.AttemptID, req.QuestionID, req.SelectedOption); err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}
