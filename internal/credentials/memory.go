package credentials

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kassolend/console/internal/models"
)

// MemoryStore keeps credentials in process memory. It backs tests and
// short-lived scripted sessions that must not touch the OS keychain.
type MemoryStore struct {
	mu     sync.Mutex
	slots  map[string]string
	clears int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]string)}
}

func (m *MemoryStore) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[TokenSlot], nil
}

func (m *MemoryStore) SaveToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[TokenSlot] = token
	return nil
}

func (m *MemoryStore) User() (*models.User, error) {
	m.mu.Lock()
	raw, ok := m.slots[UserSlot]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeUser(raw), nil
}

func (m *MemoryStore) SaveUser(user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[UserSlot] = string(data)
	return nil
}

// SetRaw writes a slot verbatim
func (m *MemoryStore) SetRaw(slot, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = value
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, TokenSlot)
	delete(m.slots, UserSlot)
	m.clears++
	return nil
}

// Clears reports how many times Clear has been called
func (m *MemoryStore) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}
