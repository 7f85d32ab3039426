package mockapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/kassolend/console/internal/models"
)

const (
	bearerPrefix    = "Bearer "
	requestIDHeader = "X-Request-ID"
	accountKey      = "account"
	sessionKey      = "session"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
)

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// requestIDMiddleware echoes the caller's request id or assigns one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", c.GetString(requestIDHeader)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// authMiddleware validates the bearer token against the session table
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			s.logger.Debug().Err(err).Msg("Rejected request without usable token")
			fail(c, http.StatusUnauthorized, "Full authentication is required to access this resource")
			return
		}

		claims, err := s.tokens.Validate(token)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Failed to validate JWT token")
			fail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		var session sessionRecord
		if err := s.db.Where("id = ?", claims.ID).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fail(c, http.StatusUnauthorized, "Session has been revoked")
				return
			}
			s.logger.Error().Err(err).Msg("Failed to load session")
			internalError(c)
			return
		}

		var account accountRecord
		if err := s.db.Where("id = ? AND active = ?", session.AccountID, true).First(&account).Error; err != nil {
			s.logger.Warn().Err(err).Int64("account_id", session.AccountID).Msg("Session for unknown or inactive account")
			fail(c, http.StatusUnauthorized, "User not found")
			return
		}

		c.Set(accountKey, &account)
		c.Set(sessionKey, &session)
		c.Next()
	}
}

// requirePermission rejects accounts whose role lacks p
func (s *Server) requirePermission(p models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := currentAccount(c)
		for _, granted := range models.RolePermissions[models.UserRole(account.Role)] {
			if granted == p {
				c.Next()
				return
			}
		}
		s.logger.Warn().Str("username", account.Username).Str("permission", string(p)).Msg("Permission denied")
		fail(c, http.StatusForbidden, "You do not have permission to perform this action")
	}
}

func currentAccount(c *gin.Context) *accountRecord {
	account, _ := c.MustGet(accountKey).(*accountRecord)
	return account
}

func currentSession(c *gin.Context) *sessionRecord {
	session, _ := c.MustGet(sessionKey).(*sessionRecord)
	return session
}

// scopeToOfficer limits a query to the caller's own records when the caller is a loan officer
func scopeToOfficer(c *gin.Context) func(*gorm.DB) *gorm.DB {
	account := currentAccount(c)
	return func(db *gorm.DB) *gorm.DB {
		if account.Role == string(models.RoleLoanOfficer) {
			return db.Where("loan_officer_id = ?", account.ID)
		}
		return db
	}
}
