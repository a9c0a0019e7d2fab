package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt represents one candidate's run through one test.
// Once CompletedAt is set the attempt is terminal: no further answer writes,
// no re-scoring, and submit replays the stored result.
type Attempt struct {
	ID               uuid.UUID  `json:"id"`
	TestID           uuid.UUID  `json:"testId"`
	CandidateName    string     `json:"candidateName"`
	CandidateEmail   string     `json:"candidateEmail"`
	StartedAt        time.Time  `json:"startedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	Score            *int       `json:"score,omitempty"`
	Total            *int       `json:"total,omitempty"`
	TimeTakenMinutes *int       `json:"timeTakenMinutes,omitempty"`
	AutoSubmitted    *bool      `json:"autoSubmitted,omitempty"`
}

// Completed reports whether the attempt is terminal.
func (a *Attempt) Completed() bool {
	return a.CompletedAt != nil
}

// StartAttemptRequest is the candidate payload for starting an attempt.
type StartAttemptRequest struct {
	Token      string `json:"token" binding:"required"`
	Name       string `json:"name" binding:"required,min=1,max=255"`
	Email      string `json:"email" binding:"required,email"`
	AccessCode string `json:"accessCode" binding:"omitempty,max=20"`
}

// AttemptState is the resume payload: everything the client needs to rebuild
// the exam UI after a reload. StartedAt is the server clock value recorded at
// creation; the client must recompute remaining time from it.
type AttemptState struct {
	Duration                int                    `json:"duration"`
	StartedAt               time.Time              `json:"startedAt"`
	CompletedAt             *time.Time             `json:"completedAt,omitempty"`
	AutoSubmitOnGraceExpire bool                   `json:"autoSubmitOnGraceExpire"`
	MaxViolations           int                    `json:"maxViolations"`
	GraceSeconds            int                    `json:"graceSeconds"`
	RemainingSeconds        int64                  `json:"remainingSeconds"`
	Questions               []QuestionForCandidate `json:"questions"`
	Answers                 []SavedAnswer          `json:"answers"`
}

// SubmitRequest is the finalize payload. Answers are optional: a manual submit
// may carry the latest selections, an auto-submit usually carries none.
type SubmitRequest struct {
	AttemptID uuid.UUID         `json:"attemptId" binding:"required"`
	Answers   []SubmittedAnswer `json:"answers" binding:"omitempty,dive"`
}

// SubmittedAnswer is one answer inside a submit payload.
type SubmittedAnswer struct {
	QuestionID     uuid.UUID `json:"questionId" binding:"required"`
	SelectedOption string    `json:"selectedOption" binding:"required,oneof=A B C D"`
}

// SubmitResult is the scored outcome of a finalized attempt.
type SubmitResult struct {
	Message          string `json:"message"`
	Score            int    `json:"score"`
	Total            int    `json:"total"`
	TimeTakenMinutes int    `json:"timeTakenMinutes"`
	AutoSubmitted    bool   `json:"autoSubmitted"`
}
