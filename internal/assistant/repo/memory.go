package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

// MemoryThreadStore is the in-process ThreadStore used by tests and by the
// demo when no Redis is configured. Documents round-trip through JSON so
// stored values cannot alias caller memory, matching the Redis behavior.
type MemoryThreadStore struct {
	mu       sync.RWMutex
	slots    map[string]map[string]string
	messages map[string][]model.ThreadMessage
	docs     map[string]map[string][]byte
}

func NewMemoryThreadStore() *MemoryThreadStore {
	return &MemoryThreadStore{
		slots:    make(map[string]map[string]string),
		messages: make(map[string][]model.ThreadMessage),
		docs:     make(map[string]map[string][]byte),
	}
}

func (s *MemoryThreadStore) GetSlots(_ context.Context, threadID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.slots[threadID]))
	for k, v := range s.slots[threadID] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryThreadStore) SetSlots(_ context.Context, threadID string, slots map[string]string) error {
	cp := make(map[string]string, len(slots))
	for k, v := range slots {
		cp[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[threadID] = cp
	return nil
}

func (s *MemoryThreadStore) AppendMessage(_ context.Context, threadID string, msg model.ThreadMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[threadID] = append(s.messages[threadID], msg)
	return nil
}

func (s *MemoryThreadStore) Messages(_ context.Context, threadID string) ([]model.ThreadMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ThreadMessage, len(s.messages[threadID]))
	copy(out, s.messages[threadID])
	return out, nil
}

func (s *MemoryThreadStore) SetJSON(_ context.Context, threadID, doc string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s doc: %w", doc, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[threadID] == nil {
		s.docs[threadID] = make(map[string][]byte)
	}
	s.docs[threadID][doc] = b
	return nil
}

func (s *MemoryThreadStore) GetJSON(_ context.Context, threadID, doc string, v any) (bool, error) {
	s.mu.RLock()
	b, ok := s.docs[threadID][doc]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("unmarshal %s doc: %w", doc, err)
	}
	return true, nil
}

func (s *MemoryThreadStore) Clear(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, threadID)
	delete(s.messages, threadID)
	delete(s.docs, threadID)
	return nil
}

var _ model.ThreadStore = (*MemoryThreadStore)(nil)
