package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/proctor"
)

// fakeAPI records calls and serves scripted responses.
type fakeAPI struct {
	mu sync.Mutex

	state     *model.AttemptState
	stateErr  error
	submitErr error

	submitCalls int
	saved       []*model.SaveAnswerRequest
	violations  []*model.LogViolationRequest

	savedCh chan struct{}
	violCh  chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		savedCh: make(chan struct{}, 16),
		violCh:  make(chan struct{}, 16),
	}
}

func (f *fakeAPI) GetAttemptState(ctx context.Context, attemptID uuid.UUID) (*model.AttemptState, error) {
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeAPI) SaveAnswer(ctx context.Context, req *model.SaveAnswerRequest) error {
	f.mu.Lock()
	f.saved = append(f.saved, req)
	f.mu.Unlock()
	f.savedCh <- struct{}{}
	return nil
}

func (f *fakeAPI) Submit(ctx context.Context, attemptID uuid.UUID, answers []model.SubmittedAnswer) (*model.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &model.SubmitResult{Message: "Test submitted successfully", Score: 2, Total: 3, TimeTakenMinutes: 12}, nil
}

func (f *fakeAPI) LogViolation(ctx context.Context, req *model.LogViolationRequest) error {
	f.mu.Lock()
	f.violations = append(f.violations, req)
	f.mu.Unlock()
	f.violCh <- struct{}{}
	return nil
}

func newTestController(api API) (*Controller, *MemoryStore) {
	store := NewMemoryStore()
	return NewController(api, store, zerolog.Nop()), store
}

func TestResolveExplicitWinsAndPersists(t *testing.T) {
	ctrl, store := newTestController(newFakeAPI())

	stale := uuid.New()
	require.NoError(t, store.Set(stale))

	explicit := uuid.New()
	id, err := ctrl.Resolve(explicit)

	require.NoError(t, err)
	assert.Equal(t, explicit, id)

	persisted, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, explicit, persisted, "explicit identity replaces the stored one")
}

func TestResolveFallsBackToStore(t *testing.T) {
	ctrl, store := newTestController(newFakeAPI())

	stored := uuid.New()
	require.NoError(t, store.Set(stored))

	id, err := ctrl.Resolve(uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, stored, id)
}

func TestResolveFailsWithoutIdentity(t *testing.T) {
	ctrl, _ := newTestController(newFakeAPI())

	_, err := ctrl.Resolve(uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLoadFinalizedAttemptRedirects(t *testing.T) {
	api := newFakeAPI()
	completed := time.Now()
	api.state = &model.AttemptState{Duration: 30, CompletedAt: &completed}

	ctrl, _ := newTestController(api)
	_, err := ctrl.Resolve(uuid.New())
	require.NoError(t, err)

	_, finalized, err := ctrl.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, finalized)
	assert.True(t, ctrl.Submitted(), "guard pre-set so no local trigger re-submits")

	// Any later finalize trigger is a no-op.
	_, err = ctrl.Finalize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, api.submitCalls)
}

func TestFinalizeExactlyOnceUnderRace(t *testing.T) {
	api := newFakeAPI()
	ctrl, _ := newTestController(api)
	_, err := ctrl.Resolve(uuid.New())
	require.NoError(t, err)

	// Timer expiry, threshold breach, grace expiry, and a manual submit all
	// firing at once must converge on one submit call.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.Finalize(context.Background(), nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, api.submitCalls)

	result := ctrl.Result()
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 3, result.Total)
}

func TestFinalizeRepeatReturnsStoredResult(t *testing.T) {
	api := newFakeAPI()
	ctrl, _ := newTestController(api)
	_, err := ctrl.Resolve(uuid.New())
	require.NoError(t, err)

	first, err := ctrl.Finalize(context.Background(), nil)
	require.NoError(t, err)

	second, err := ctrl.Finalize(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.submitCalls)
}

func TestFinalizeFailureAllowsRetry(t *testing.T) {
	api := newFakeAPI()
	api.submitErr = errors.New("network down")

	ctrl, store := newTestController(api)
	_, err := ctrl.Resolve(uuid.New())
	require.NoError(t, err)

	_, err = ctrl.Finalize(context.Background(), nil)
	require.Error(t, err)
	assert.False(t, ctrl.Submitted(), "guard released after a failed submit")

	_, ok := store.Get()
	assert.True(t, ok, "session survives a failed finalize")

	api.mu.Lock()
	api.submitErr = nil
	api.mu.Unlock()

	result, err := ctrl.Finalize(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 2, api.submitCalls)

	_, ok = store.Get()
	assert.False(t, ok, "session cleared only on success")
}

func TestSaveAnswerFireAndForget(t *testing.T) {
	api := newFakeAPI()
	ctrl, _ := newTestController(api)
	attemptID := uuid.New()
	_, err := ctrl.Resolve(attemptID)
	require.NoError(t, err)

	questionID := uuid.New()
	ctrl.SaveAnswer(questionID, "B")

	select {
	case <-api.savedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("autosave never reached the API")
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.saved, 1)
	assert.Equal(t, attemptID, api.saved[0].AttemptID)
	assert.Equal(t, questionID, api.saved[0].QuestionID)
	assert.Equal(t, "B", api.saved[0].SelectedOption)
}

func TestSaveAnswerDroppedAfterFinalize(t *testing.T) {
	api := newFakeAPI()
	ctrl, _ := newTestController(api)
	_, err := ctrl.Resolve(uuid.New())
	require.NoError(t, err)

	_, err = ctrl.Finalize(context.Background(), nil)
	require.NoError(t, err)

	ctrl.SaveAnswer(uuid.New(), "A")

	select {
	case <-api.savedCh:
		t.Fatal("autosave fired after finalize")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifyViolationForwardsEvent(t *testing.T) {
	api := newFakeAPI()
	ctrl, _ := newTestController(api)
	attemptID := uuid.New()
	_, err := ctrl.Resolve(attemptID)
	require.NoError(t, err)

	at := time.Now().Truncate(time.Second)
	ctrl.NotifyViolation(proctor.ViolationEvent{
		Type:      model.ViolationTabSwitch,
		Count:     2,
		Timestamp: at,
	})

	select {
	case <-api.violCh:
	case <-time.After(2 * time.Second):
		t.Fatal("violation never reached the API")
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.violations, 1)
	assert.Equal(t, attemptID, api.violations[0].AttemptID)
	assert.Equal(t, model.ViolationTabSwitch, api.violations[0].Type)
	assert.Equal(t, 2, api.violations[0].Count)
	assert.Equal(t, at, api.violations[0].Timestamp)
}
