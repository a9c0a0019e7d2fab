package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/proctor"
)

// ErrInvalidSession means no attempt identity could be resolved; the
// candidate has to restart from the test link.
var ErrInvalidSession = errors.New("invalid session, restart the test")

// fire-and-forget calls get their own deadline; they outlive the UI event
// that triggered them.
const backgroundCallTimeout = 10 * time.Second

// API is the server surface the controller drives.
type API interface {
	GetAttemptState(ctx context.Context, attemptID uuid.UUID) (*model.AttemptState, error)
	SaveAnswer(ctx context.Context, req *model.SaveAnswerRequest) error
	Submit(ctx context.Context, attemptID uuid.UUID, answers []model.SubmittedAnswer) (*model.SubmitResult, error)
	LogViolation(ctx context.Context, req *model.LogViolationRequest) error
}

// Controller owns the client-side attempt lifecycle: identity resolution and
// resume, fire-and-forget autosave, violation forwarding, and the single-fire
// finalize guard. Timer expiry, violation threshold, grace expiry, and manual
// submit all funnel through Finalize; exactly one of them wins.
type Controller struct {
	api   API
	store Store
	log   zerolog.Logger

	attemptID uuid.UUID

	// submitted is the sole guard against double finalization. It is set
	// optimistically before the network call and rolled back on failure,
	// so a failed submit can be retried.
	submitted atomic.Bool

	mu     sync.Mutex
	result *model.SubmitResult
}

// NewController creates a Controller.
func NewController(api API, store Store, log zerolog.Logger) *Controller {
	return &Controller{
		api:   api,
		store: store,
		log:   log.With().Str("component", "session_controller").Logger(),
	}
}

// Resolve picks the attempt identity: an explicit navigation payload wins,
// then the durable store, otherwise the session is invalid. An explicit
// identity is persisted so a later reload can resume.
func (c *Controller) Resolve(explicit uuid.UUID) (uuid.UUID, error) {
	if explicit != uuid.Nil {
		c.attemptID = explicit
		if err := c.store.Set(explicit); err != nil {
			c.log.Warn().Err(err).Msg("Session store write failed")
		}
		return explicit, nil
	}

	if id, ok := c.store.Get(); ok {
		c.attemptID = id
		return id, nil
	}

	return uuid.Nil, ErrInvalidSession
}

// Load fetches the attempt state for entering or resuming the exam. The
// second return is true when the attempt is already finalized, in which case
// the caller goes straight to the result view; the guard is pre-set so no
// local trigger can re-submit.
func (c *Controller) Load(ctx context.Context) (*model.AttemptState, bool, error) {
	if c.attemptID == uuid.Nil {
		return nil, false, ErrInvalidSession
	}

	state, err := c.api.GetAttemptState(ctx, c.attemptID)
	if err != nil {
		return nil, false, err
	}

	if state.CompletedAt != nil {
		c.submitted.Store(true)
		return state, true, nil
	}
	return state, false, nil
}

// SaveAnswer autosaves one answer in the background. Failures are logged and
// swallowed; they never reach the candidate and never block interaction.
func (c *Controller) SaveAnswer(questionID uuid.UUID, selectedOption string) {
	if c.submitted.Load() {
		return
	}

	attemptID := c.attemptID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundCallTimeout)
		defer cancel()

		err := c.api.SaveAnswer(ctx, &model.SaveAnswerRequest{
			AttemptID:      attemptID,
			QuestionID:     questionID,
			SelectedOption: selectedOption,
		})
		if err != nil {
			c.log.Warn().Err(err).Str("question_id", questionID.String()).Msg("Autosave failed")
		}
	}()
}

// NotifyViolation forwards a monitor event to the server log in the
// background. Same contract as autosave: best-effort only.
func (c *Controller) NotifyViolation(ev proctor.ViolationEvent) {
	attemptID := c.attemptID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundCallTimeout)
		defer cancel()

		err := c.api.LogViolation(ctx, &model.LogViolationRequest{
			AttemptID: attemptID,
			Type:      ev.Type,
			Count:     ev.Count,
			Timestamp: ev.Timestamp,
		})
		if err != nil {
			c.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Violation logging failed")
		}
	}()
}

// Finalize submits the attempt exactly once. The guard is claimed atomically
// relative to the decision to call submit, so near-simultaneous triggers
// (timer expiry in the same tick as a threshold breach) still produce one
// call; later callers get the stored result. On failure the guard is
// released so the candidate can retry. Local session state is cleared only
// after a successful finalize.
func (c *Controller) Finalize(ctx context.Context, answers []model.SubmittedAnswer) (*model.SubmitResult, error) {
	if !c.submitted.CompareAndSwap(false, true) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.result, nil
	}

	result, err := c.api.Submit(ctx, c.attemptID, answers)
	if err != nil {
		c.submitted.Store(false)
		return nil, err
	}

	c.mu.Lock()
	c.result = result
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("Session store clear failed")
	}

	c.log.Info().
		Str("attempt_id", c.attemptID.String()).
		Int("score", result.Score).
		Bool("auto", result.AutoSubmitted).
		Msg("Attempt finalized")

	return result, nil
}

// Submitted reports whether a finalize has succeeded or is in flight.
func (c *Controller) Submitted() bool {
	return c.submitted.Load()
}

// Result returns the stored finalize result, nil before the first success.
func (c *Controller) Result() *model.SubmitResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}
