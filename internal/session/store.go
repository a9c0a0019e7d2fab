package session

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Store is the durable session record: the attempt identity that survives a
// page reload or process restart. Implementations must tolerate Clear on an
// empty store.
type Store interface {
	Get() (uuid.UUID, bool)
	Set(id uuid.UUID) error
	Clear() error
}

// ─── Memory Store ───────────────────────────────────────────────────

// MemoryStore is an in-process Store, used in tests and ephemeral sessions.
type MemoryStore struct {
	mu  sync.Mutex
	id  uuid.UUID
	set bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.set
}

func (s *MemoryStore) Set(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.set = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.Nil
	s.set = false
	return nil
}

// ─── File Store ─────────────────────────────────────────────────────

type fileRecord struct {
	AttemptID uuid.UUID `json:"attemptId"`
}

// FileStore persists the session record as a small JSON file, the same role
// browser local storage plays for a web client.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return uuid.Nil, false
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.AttemptID == uuid.Nil {
		return uuid.Nil, false
	}
	return rec.AttemptID, true
}

func (s *FileStore) Set(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(fileRecord{AttemptID: id})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
