package service

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/invigo/invigo-backend/internal/model"
)

// ScoreAnswers counts stored answers matching the question answer key.
// Answers for questions outside the key (stale or foreign) score nothing.
func ScoreAnswers(answers []model.SavedAnswer, key map[uuid.UUID]string) int {
	score := 0
	for _, a := range answers {
		if correct, ok := key[a.QuestionID]; ok && a.SelectedOption == correct {
			score++
		}
	}
	return score
}

// IsTimeOver reports whether the exam window has elapsed. The window is
// anchored to the server-recorded start, never to client-supplied elapsed time.
func IsTimeOver(startedAt, now time.Time, durationMinutes int) bool {
	return now.After(startedAt.Add(time.Duration(durationMinutes) * time.Minute))
}

// TimeTakenMinutes computes the elapsed minutes rounded up, clamped to the
// exam duration so a late auto-submit never reports more than the window.
func TimeTakenMinutes(startedAt, now time.Time, durationMinutes int) int {
	expiry := startedAt.Add(time.Duration(durationMinutes) * time.Minute)
	end := now
	if end.After(expiry) {
		end = expiry
	}
	elapsed := end.Sub(startedAt)
	if elapsed < 0 {
		return 0
	}
	return int(math.Ceil(elapsed.Minutes()))
}
