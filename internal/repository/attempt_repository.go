package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/model"
)

// AttemptRepository handles attempt data access. The attempt row is the unit
// of mutual exclusion: finalization runs under a row lock so two concurrent
// submits cannot both score.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, test_id, candidate_name, candidate_email, started_at,
	completed_at, score, total, time_taken_minutes, auto_submitted`

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.TestID, &a.CandidateName, &a.CandidateEmail, &a.StartedAt,
		&a.CompletedAt, &a.Score, &a.Total, &a.TimeTakenMinutes, &a.AutoSubmitted)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new attempt. started_at is set by the database clock once
// at creation and never rewritten. A unique constraint on
// (test_id, candidate_email) makes a second start fail.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (test_id, candidate_name, candidate_email)
		 VALUES ($1, $2, $3)
		 RETURNING id, started_at`,
		a.TestID, a.CandidateName, a.CandidateEmail,
	).Scan(&a.ID, &a.StartedAt)
}

// GetByID retrieves an attempt by ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves an attempt inside an open transaction, taking a
// row lock that serializes concurrent finalizations.
func (r *AttemptRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(tx.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1 FOR UPDATE`, id))
}

// CompleteTx marks an attempt completed with its scored result, inside an open
// transaction. The completed_at IS NULL guard makes completion fire exactly once.
func (r *AttemptRepository) CompleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, score, total, timeTakenMinutes int, autoSubmitted bool) (time.Time, error) {
	var completedAt time.Time
	err := tx.QueryRow(ctx,
		`UPDATE attempts
		 SET completed_at = NOW(), score = $2, total = $3, time_taken_minutes = $4, auto_submitted = $5
		 WHERE id = $1 AND completed_at IS NULL
		 RETURNING completed_at`,
		id, score, total, timeTakenMinutes, autoSubmitted,
	).Scan(&completedAt)
	return completedAt, err
}

// ListByTest retrieves all attempts for a test, most recent first.
func (r *AttemptRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE test_id = $1
		 ORDER BY started_at DESC`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// Begin starts a transaction on the underlying pool.
func (r *AttemptRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}
