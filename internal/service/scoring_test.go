package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/invigo/invigo-backend/internal/model"
)

func TestScoreAnswers(t *testing.T) {
	q1, q2, q3 := uuid.New(), uuid.New(), uuid.New()
	key := map[uuid.UUID]string{q1: "A", q2: "C", q3: "B"}

	t.Run("partial answers score what was saved", func(t *testing.T) {
		answers := []model.SavedAnswer{
			{QuestionID: q1, SelectedOption: "A"},
			{QuestionID: q2, SelectedOption: "B"},
		}
		assert.Equal(t, 1, ScoreAnswers(answers, key))
	})

	t.Run("no answers", func(t *testing.T) {
		assert.Equal(t, 0, ScoreAnswers(nil, key))
	})

	t.Run("all correct", func(t *testing.T) {
		answers := []model.SavedAnswer{
			{QuestionID: q1, SelectedOption: "A"},
			{QuestionID: q2, SelectedOption: "C"},
			{QuestionID: q3, SelectedOption: "B"},
		}
		assert.Equal(t, 3, ScoreAnswers(answers, key))
	})

	t.Run("unknown question ignored", func(t *testing.T) {
		answers := []model.SavedAnswer{
			{QuestionID: uuid.New(), SelectedOption: "A"},
		}
		assert.Equal(t, 0, ScoreAnswers(answers, key))
	})
}

func TestIsTimeOver(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.False(t, IsTimeOver(start, start.Add(29*time.Minute), 30))
	assert.False(t, IsTimeOver(start, start.Add(30*time.Minute), 30), "exactly at expiry is not over")
	assert.True(t, IsTimeOver(start, start.Add(30*time.Minute+time.Second), 30))
}

func TestTimeTakenMinutes(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("rounds up partial minutes", func(t *testing.T) {
		assert.Equal(t, 13, TimeTakenMinutes(start, start.Add(12*time.Minute+30*time.Second), 30))
	})

	t.Run("clamped to duration on late submit", func(t *testing.T) {
		assert.Equal(t, 30, TimeTakenMinutes(start, start.Add(2*time.Hour), 30))
	})

	t.Run("zero at start", func(t *testing.T) {
		assert.Equal(t, 0, TimeTakenMinutes(start, start, 30))
	})

	t.Run("clock skew never goes negative", func(t *testing.T) {
		assert.Equal(t, 0, TimeTakenMinutes(start, start.Add(-time.Minute), 30))
	})
}
