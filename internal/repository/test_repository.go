package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/model"
)

// TestRepository handles test data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

const testColumns = `id, public_token, title, duration_minutes, expires_at,
	access_code_hash, auto_submit_on_grace_expire, max_violations, grace_seconds, created_at`

func scanTest(row pgx.Row) (*model.Test, error) {
	t := &model.Test{}
	err := row.Scan(&t.ID, &t.PublicToken, &t.Title, &t.DurationMinutes, &t.ExpiresAt,
		&t.AccessCodeHash, &t.AutoSubmitOnGraceExpire, &t.MaxViolations, &t.GraceSeconds, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByPublicToken retrieves a test by its public link token.
func (r *TestRepository) GetByPublicToken(ctx context.Context, token string) (*model.Test, error) {
	return scanTest(r.pool.QueryRow(ctx,
		`SELECT `+testColumns+` FROM tests WHERE public_token = $1`, token))
}

// GetByID retrieves a test by ID.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	return scanTest(r.pool.QueryRow(ctx,
		`SELECT `+testColumns+` FROM tests WHERE id = $1`, id))
}

// CreateTx inserts a new test inside an open transaction.
func (r *TestRepository) CreateTx(ctx context.Context, tx pgx.Tx, t *model.Test) error {
	return tx.QueryRow(ctx,
		`INSERT INTO tests (public_token, title, duration_minutes, expires_at,
		   access_code_hash, auto_submit_on_grace_expire, max_violations, grace_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		t.PublicToken, t.Title, t.DurationMinutes, t.ExpiresAt,
		t.AccessCodeHash, t.AutoSubmitOnGraceExpire, t.MaxViolations, t.GraceSeconds,
	).Scan(&t.ID, &t.CreatedAt)
}

// List retrieves all tests, newest first.
func (r *TestRepository) List(ctx context.Context) ([]model.Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+testColumns+` FROM tests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, *t)
	}
	return tests, rows.Err()
}

// ListTokens returns every public token, used for cache prewarming at boot.
func (r *TestRepository) ListTokens(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT public_token FROM tests`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, rows.Err()
}

// Begin starts a transaction on the underlying pool.
func (r *TestRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}
