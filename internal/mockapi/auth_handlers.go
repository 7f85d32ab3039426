package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kassolend/console/internal/models"
)

const msgBadCredentials = "Invalid username or password"

// signInData is the admin sign-in payload. Roles are a list here while the
// loan officer login sends a single role.
type signInData struct {
	Token    string   `json:"token"`
	UserID   int64    `json:"userID"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

type loanOfficerLoginData struct {
	Token           string `json:"token"`
	UserID          int64  `json:"userId"`
	Username        string `json:"username"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Role            string `json:"role"`
	PasswordChanged bool   `json:"passwordChanged"`
}

// authenticate checks credentials and opens a session. officer selects which
// population of accounts may sign in.
func (s *Server) authenticate(c *gin.Context, officer bool) (*accountRecord, string, bool) {
	var creds models.LoginCredentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return nil, "", false
	}
	if err := models.Validate(creds); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return nil, "", false
	}

	var account accountRecord
	err := s.db.Where("LOWER(username) = ? AND active = ?", strings.ToLower(creds.Username), true).First(&account).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Msg("Failed to find account")
			internalError(c)
			return nil, "", false
		}
		fail(c, http.StatusUnauthorized, msgBadCredentials)
		return nil, "", false
	}

	isOfficer := account.Role == string(models.RoleLoanOfficer)
	if isOfficer != officer {
		fail(c, http.StatusUnauthorized, msgBadCredentials)
		return nil, "", false
	}

	if err := VerifyPassword(creds.Password, account.PasswordHash); err != nil {
		fail(c, http.StatusUnauthorized, msgBadCredentials)
		return nil, "", false
	}

	token, err := s.openSession(&account)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to open session")
		internalError(c)
		return nil, "", false
	}

	s.logger.Info().Int64("user_id", account.ID).Str("username", account.Username).Msg("User logged in")
	return &account, token, true
}

func (s *Server) openSession(account *accountRecord) (string, error) {
	session := sessionRecord{AccountID: account.ID, ExpiresAt: s.now().Add(s.config.TokenTTL)}
	if err := s.db.Create(&session).Error; err != nil {
		return "", err
	}
	token, _, err := s.tokens.Issue(account, session.ID)
	return token, err
}

// @Summary Admin sign-in
// @Tags auth
// @Router /api/auth/signin [post]
func (s *Server) signIn(c *gin.Context) {
	account, token, ok := s.authenticate(c, false)
	if !ok {
		return
	}

	wrapped(c, http.StatusOK, "Login successful", signInData{
		Token:    token,
		UserID:   account.ID,
		Username: account.Username,
		Email:    account.Email,
		Roles:    []string{account.Role},
	})
}

// @Summary Loan officer login
// @Tags auth
// @Router /api/loan-officers/login [post]
func (s *Server) loanOfficerLogin(c *gin.Context) {
	account, token, ok := s.authenticate(c, true)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, loanOfficerLoginData{
		Token:           token,
		UserID:          account.ID,
		Username:        account.Username,
		FirstName:       account.FirstName,
		LastName:        account.LastName,
		Role:            account.Role,
		PasswordChanged: account.PasswordChanged,
	})
}

// logout revokes the caller's session so the token stops working at once
func (s *Server) logout(c *gin.Context) {
	session := currentSession(c)
	if err := s.db.Delete(&sessionRecord{}, "id = ?", session.ID).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to revoke session")
		internalError(c)
		return
	}
	wrapped(c, http.StatusOK, "Logged out", nil)
}

// @Summary Get current user
// @Tags auth
// @Security BearerAuth
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	wrapped(c, http.StatusOK, "", currentAccount(c).toUser())
}
