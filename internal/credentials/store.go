package credentials

import (
	"github.com/kassolend/console/internal/models"
)

const (
	// TokenSlot holds the bearer token string
	TokenSlot = "kassolend_access_token"
	// UserSlot holds the serialized current-user record
	UserSlot = "kassolend_user"
)

// Store defines the credential storage operations shared by the transport and
// the session state. An absent token is reported as "" with a nil error.
type Store interface {
	Token() (string, error)
	SaveToken(token string) error
	User() (*models.User, error)
	SaveUser(user *models.User) error
	// Clear removes both slots. Clearing an empty store is not an error.
	Clear() error
}
