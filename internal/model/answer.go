package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is keyed by (attemptId, questionId). Last write wins while the
// attempt is non-terminal; any write after completion is rejected.
type Answer struct {
	AttemptID      uuid.UUID `json:"attemptId"`
	QuestionID     uuid.UUID `json:"questionId"`
	SelectedOption string    `json:"selectedOption"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SavedAnswer is the resume view of a stored answer.
type SavedAnswer struct {
	QuestionID     uuid.UUID `json:"questionId"`
	SelectedOption string    `json:"selectedOption"`
}

// SaveAnswerRequest is the autosave payload.
type SaveAnswerRequest struct {
	AttemptID      uuid.UUID `json:"attemptId" binding:"required"`
	QuestionID     uuid.UUID `json:"questionId" binding:"required"`
	SelectedOption string    `json:"selectedOption" binding:"required,oneof=A B C D"`
}
