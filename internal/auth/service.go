package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kassolend/console/internal/credentials"
	"github.com/kassolend/console/internal/models"
	"github.com/kassolend/console/internal/transport"
)

const (
	adminSignInPath       = "/auth/signin"
	loanOfficerSignInPath = "/loan-officers/login"
	logoutPath            = "/auth/logout"
	currentUserPath       = "/auth/me"
)

// ErrInvalidLoginResponse is returned when a sign-in succeeds without a token
var ErrInvalidLoginResponse = errors.New("Invalid response from server")

// signInPayload is the unwrapped sign-in response. The backend is not
// consistent about the user id key, so both spellings are read.
type signInPayload struct {
	Token       string              `json:"token"`
	UserID      *int64              `json:"userID"`
	UserIDAlt   *int64              `json:"userId"`
	Username    string              `json:"username"`
	Email       string              `json:"email"`
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	Role        string              `json:"role"`
	Roles       []string            `json:"roles"`
	Permissions []models.Permission `json:"permissions"`
}

// Service signs users in and out and exposes the stored session
type Service struct {
	api    transport.Doer
	store  credentials.Store
	guard  *transport.LogoutGuard
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates an auth service over the shared transport client
func NewService(client *transport.Client, logger zerolog.Logger) *Service {
	return &Service{
		api:    client,
		store:  client.Store(),
		guard:  client.Guard(),
		logger: logger,
		now:    time.Now,
	}
}

// Login authenticates against the endpoint for userType, stores the token and
// user record, and returns them
func (s *Service) Login(ctx context.Context, creds models.LoginCredentials, userType models.UserType) (*models.LoginResponse, error) {
	if err := models.Validate(creds); err != nil {
		return nil, err
	}

	endpoint := adminSignInPath
	if userType == models.UserTypeLoanOfficer {
		endpoint = loanOfficerSignInPath
	}

	// A fresh sign-in ends any logout episode still winding down
	s.guard.Reset()

	payload, err := transport.Post[*signInPayload](ctx, s.api, endpoint, creds, transport.Anonymous())
	if err != nil {
		return nil, err
	}
	if payload == nil || payload.Token == "" {
		return nil, ErrInvalidLoginResponse
	}

	user := s.mapUser(payload, userType)

	if err := s.store.SaveToken(payload.Token); err != nil {
		return nil, fmt.Errorf("failed to save authentication token: %w", err)
	}
	if err := s.store.SaveUser(user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("Login successful")

	return &models.LoginResponse{
		User: user,
		// No refresh token is issued; the access token stands in for it
		Tokens: models.AuthTokens{AccessToken: payload.Token, RefreshToken: payload.Token},
	}, nil
}

func (s *Service) mapUser(p *signInPayload, userType models.UserType) *models.User {
	role := userType.DefaultRole()
	switch {
	case p.Role != "":
		role = models.UserRole(p.Role)
	case len(p.Roles) > 0:
		role = models.UserRole(p.Roles[0])
	}

	// Customers only use the mobile app, so a console sign-in is never one
	if strings.EqualFold(string(role), string(models.RoleCustomer)) {
		s.logger.Warn().Str("user_type", string(userType)).Msg("Backend returned CUSTOMER role for console login, overriding")
		role = userType.DefaultRole()
	}

	var id int64
	switch {
	case p.UserID != nil:
		id = *p.UserID
	case p.UserIDAlt != nil:
		id = *p.UserIDAlt
	}

	now := s.now().UTC().Format(time.RFC3339)
	permissions := p.Permissions
	if permissions == nil {
		permissions = []models.Permission{}
	}

	return &models.User{
		ID:          id,
		Username:    p.Username,
		Email:       firstNonEmpty(p.Email, p.Username),
		FirstName:   firstNonEmpty(p.FirstName, p.Username),
		LastName:    p.LastName,
		Role:        role,
		Permissions: permissions,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Logout tells the backend the session is over. Local credentials are cleared
// whatever the backend answers.
func (s *Service) Logout(ctx context.Context) error {
	err := s.api.Do(ctx, http.MethodPost, logoutPath, nil, nil)
	if transport.IsCancelled(err) {
		err = nil
	}
	if clearErr := s.store.Clear(); clearErr != nil {
		return errors.Join(err, fmt.Errorf("failed to clear credentials: %w", clearErr))
	}
	return err
}

// CurrentUser fetches the signed-in user from the backend
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	return transport.Get[*models.User](ctx, s.api, currentUserPath)
}

// StoredUser returns the locally stored user, or nil
func (s *Service) StoredUser() *models.User {
	user, err := s.store.User()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read stored user")
		return nil
	}
	return user
}

// Token returns the stored bearer token, or ""
func (s *Service) Token() string {
	token, err := s.store.Token()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read stored token")
		return ""
	}
	return token
}

// IsAuthenticated reports whether a credential is stored. It does not check expiry.
func (s *Service) IsAuthenticated() bool {
	return s.Token() != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
