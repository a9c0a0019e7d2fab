package model

import (
	"time"

	"github.com/google/uuid"
)

// Test represents a published exam reachable through a public token.
// Immutable for the exam-taking flow once candidates can reach it.
type Test struct {
	ID                      uuid.UUID  `json:"id"`
	PublicToken             string     `json:"publicToken"`
	Title                   string     `json:"title"`
	DurationMinutes         int        `json:"duration"`
	ExpiresAt               *time.Time `json:"expiresAt,omitempty"`
	AccessCodeHash          *string    `json:"-"`
	AutoSubmitOnGraceExpire bool       `json:"autoSubmitOnGraceExpire"`
	MaxViolations           int        `json:"maxViolations"`
	GraceSeconds            int        `json:"graceSeconds"`
	CreatedAt               time.Time  `json:"createdAt"`
}

// RequiresAccessCode reports whether attempt creation is gated by an access code.
func (t *Test) RequiresAccessCode() bool {
	return t.AccessCodeHash != nil && *t.AccessCodeHash != ""
}

// Expired reports whether the public link has passed its expiry.
func (t *Test) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// PublicTestPayload is the candidate-safe view of a test, served from cache.
// Questions never carry the correct option.
type PublicTestPayload struct {
	TestID             uuid.UUID              `json:"testId"`
	Title              string                 `json:"title"`
	Duration           int                    `json:"duration"`
	RequiresAccessCode bool                   `json:"requiresAccessCode"`
	Questions          []QuestionForCandidate `json:"questions"`
}

// CreateTestRequest is the admin payload for creating a test with its questions.
type CreateTestRequest struct {
	Title                   string                  `json:"title" binding:"required,min=3,max=255"`
	DurationMinutes         int                     `json:"duration" binding:"required,min=1,max=480"`
	ExpiresAt               *time.Time              `json:"expiresAt" binding:"omitempty"`
	AccessCode              string                  `json:"accessCode" binding:"omitempty,min=4,max=20"`
	AutoSubmitOnGraceExpire bool                    `json:"autoSubmitOnGraceExpire"`
	MaxViolations           *int                    `json:"maxViolations" binding:"omitempty,min=1,max=20"`
	GraceSeconds            *int                    `json:"graceSeconds" binding:"omitempty,min=5,max=300"`
	Questions               []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
