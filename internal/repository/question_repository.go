package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// InsertManyTx bulk-inserts questions for a test inside an open transaction.
func (r *QuestionRepository) InsertManyTx(ctx context.Context, tx pgx.Tx, testID uuid.UUID, questions []model.CreateQuestionRequest) error {
	rows := make([][]interface{}, 0, len(questions))
	for i, q := range questions {
		rows = append(rows, []interface{}{
			testID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, i,
		})
	}

	_, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"questions"},
		[]string{"test_id", "text", "option_a", "option_b", "option_c", "option_d", "correct_option", "order_num"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// ListByTest retrieves a test's questions in order.
func (r *QuestionRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, text, option_a, option_b, option_c, option_d, correct_option, order_num
		 FROM questions
		 WHERE test_id = $1
		 ORDER BY order_num ASC`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TestID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AnswerKeyTx returns the question → correct option map for a test inside an
// open transaction. The map size is the authoritative question total.
func (r *QuestionRepository) AnswerKeyTx(ctx context.Context, tx pgx.Tx, testID uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, correct_option FROM questions WHERE test_id = $1`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	key := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var correct string
		if err := rows.Scan(&id, &correct); err != nil {
			return nil, err
		}
		key[id] = correct
	}
	return key, rows.Err()
}
