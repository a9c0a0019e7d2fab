package model

import (
	"time"

	"github.com/google/uuid"
)

// ViolationType enumerates proctoring signal classes.
type ViolationType string

const (
	ViolationFullscreenExit ViolationType = "FULLSCREEN_EXIT"
	ViolationTabSwitch      ViolationType = "TAB_SWITCH"
	ViolationWindowMinimize ViolationType = "WINDOW_MINIMIZE"
)

// Valid reports whether t is a known violation type.
func (t ViolationType) Valid() bool {
	switch t {
	case ViolationFullscreenExit, ViolationTabSwitch, ViolationWindowMinimize:
		return true
	}
	return false
}

// Violation is one entry of an attempt's append-only violation log.
// Count is the running tally at the time of the event and is non-decreasing
// across a given attempt's log.
type Violation struct {
	ID         int64         `json:"id"`
	AttemptID  uuid.UUID     `json:"attemptId"`
	Type       ViolationType `json:"type"`
	Count      int           `json:"count"`
	OccurredAt time.Time     `json:"timestamp"`
}

// LogViolationRequest is the best-effort logging payload.
type LogViolationRequest struct {
	AttemptID uuid.UUID     `json:"attemptId" binding:"required"`
	Type      ViolationType `json:"type" binding:"required,oneof=FULLSCREEN_EXIT TAB_SWITCH WINDOW_MINIMIZE"`
	Count     int           `json:"count" binding:"required,min=1"`
	Timestamp time.Time     `json:"timestamp" binding:"required"`
}
