package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/model"
)

// AnswerRepository handles answer data access. Answers are keyed by
// (attempt_id, question_id); last write wins while the attempt is open.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert creates or updates a single answer.
func (r *AnswerRepository) Upsert(ctx context.Context, attemptID, questionID uuid.UUID, selectedOption string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO answers (attempt_id, question_id, selected_option)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET selected_option = EXCLUDED.selected_option, updated_at = NOW()`,
		attemptID, questionID, selectedOption)
	return err
}

// UpsertTx creates or updates a single answer inside an open transaction.
func (r *AnswerRepository) UpsertTx(ctx context.Context, tx pgx.Tx, attemptID, questionID uuid.UUID, selectedOption string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO answers (attempt_id, question_id, selected_option)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET selected_option = EXCLUDED.selected_option, updated_at = NOW()`,
		attemptID, questionID, selectedOption)
	return err
}

// ListByAttempt retrieves all saved answers for an attempt.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.SavedAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, selected_option FROM answers WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSavedAnswers(rows)
}

// ListByAttemptTx retrieves all saved answers inside an open transaction,
// used for scoring after the attempt row is locked.
func (r *AnswerRepository) ListByAttemptTx(ctx context.Context, tx pgx.Tx, attemptID uuid.UUID) ([]model.SavedAnswer, error) {
	rows, err := tx.Query(ctx,
		`SELECT question_id, selected_option FROM answers WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSavedAnswers(rows)
}

func collectSavedAnswers(rows pgx.Rows) ([]model.SavedAnswer, error) {
	var answers []model.SavedAnswer
	for rows.Next() {
		var a model.SavedAnswer
		if err := rows.Scan(&a.QuestionID, &a.SelectedOption); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
