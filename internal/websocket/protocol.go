package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing      Action = "ping"
	ActionViolation Action = "violation"
)

// RequestPayload carries every client → server message. Fields beyond Action
// are only set for the matching action.
type RequestPayload struct {
	Action Action `json:"action"`
	// Violation report fields.
	Type      string `json:"type,omitempty"`
	Count     int    `json:"count,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventPong     Event = "pong"
	EventTick     Event = "tick"
	EventTimeOver Event = "time_over"
	EventError    Event = "error"
	EventLogged   Event = "logged"
)

// TickPayload is pushed once per second with the authoritative remaining time.
type TickPayload struct {
	Event            Event `json:"event"`
	RemainingSeconds int64 `json:"remainingSeconds"`
}

type EventPayload struct {
	Event Event  `json:"event"`
	Error string `json:"error,omitempty"`
}
