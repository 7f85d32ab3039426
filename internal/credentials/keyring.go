package credentials

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/kassolend/console/internal/models"
)

const (
	service = "kassolend-console"
)

// KeyringStore persists credentials in the OS keychain/credential manager.
// Slots are namespaced per API root so several backends can be used side by side.
type KeyringStore struct {
	profile string
}

// NewKeyringStore creates a store scoped to the given API base URL
func NewKeyringStore(apiBaseURL string) *KeyringStore {
	return &KeyringStore{profile: apiBaseURL}
}

// getKeyringKey returns the keyring key for a slot in this profile
func (s *KeyringStore) getKeyringKey(slot string) string {
	return fmt.Sprintf("%s-%s", slot, s.profile)
}

func (s *KeyringStore) get(slot string) (string, error) {
	value, err := keyring.Get(service, s.getKeyringKey(slot))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", slot, err)
	}
	return value, nil
}

func (s *KeyringStore) set(slot, value string) error {
	if err := keyring.Set(service, s.getKeyringKey(slot), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", slot, err)
	}
	return nil
}

func (s *KeyringStore) delete(slot string) error {
	if err := keyring.Delete(service, s.getKeyringKey(slot)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", slot, err)
	}
	return nil
}

// Token retrieves the bearer token, or "" if none is stored
func (s *KeyringStore) Token() (string, error) {
	return s.get(TokenSlot)
}

// SaveToken persists the bearer token
func (s *KeyringStore) SaveToken(token string) error {
	return s.set(TokenSlot, token)
}

// User retrieves the stored user. A missing or unreadable record yields nil.
func (s *KeyringStore) User() (*models.User, error) {
	raw, err := s.get(UserSlot)
	if err != nil || raw == "" {
		return nil, err
	}
	return decodeUser(raw), nil
}

// SaveUser persists the user record as JSON
func (s *KeyringStore) SaveUser(user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return s.set(UserSlot, string(data))
}

// Clear removes both the token and the user record
func (s *KeyringStore) Clear() error {
	return errors.Join(s.delete(TokenSlot), s.delete(UserSlot))
}

func decodeUser(raw string) *models.User {
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}
	return &user
}
