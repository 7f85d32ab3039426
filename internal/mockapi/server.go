// Package mockapi is a development stand-in for the lending backend. It
// reproduces the backend's wire quirks (mixed wrapped and bare bodies, Spring
// pages, 0-indexed paging) over an embedded SQLite database.
package mockapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kassolend/console/internal/config"
	"github.com/kassolend/console/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	db     *gorm.DB
	config config.MockAPIConfig
	logger zerolog.Logger
	tokens *TokenIssuer
	now    func() time.Time
}

// New creates a new server instance with a migrated and seeded database
func New(cfg config.MockAPIConfig, zlog zerolog.Logger) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	server := &Server{
		db:     db,
		config: cfg,
		logger: zlog,
		tokens: NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		now:    time.Now,
	}

	if err := server.seed(); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// initDatabase opens the SQLite database
func initDatabase(cfg config.MockAPIConfig, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns = 4
		maxIdleConns = 4
		busyTimeout  = 5000 // 5 seconds
	)

	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stderr, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Idle connections are never expired so that a shared in-memory database
	// outlives quiet periods
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware for the browser console dev server
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Resource not found")
	})

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/auth/signin", s.signIn)
	s.router.POST("/api/loan-officers/login", s.loanOfficerLogin)

	api := s.router.Group("/api")
	api.Use(s.authMiddleware())
	{
		api.POST("/auth/logout", s.logout)
		api.GET("/auth/me", s.getCurrentUser)

		customers := api.Group("/customers")
		{
			customers.GET("", s.requirePermission(models.PermViewCustomer), s.listCustomers)
			customers.POST("", s.requirePermission(models.PermCreateCustomer), s.createCustomer)
			customers.GET("/search", s.requirePermission(models.PermViewCustomer), s.searchCustomers)
			customers.POST("/change-password", s.requirePermission(models.PermEditCustomer), s.changeCustomerPassword)
			customers.GET("/:id", s.requirePermission(models.PermViewCustomer), s.getCustomer)
			customers.PUT("/:id", s.requirePermission(models.PermEditCustomer), s.updateCustomer)
			customers.POST("/:id/update-field", s.requirePermission(models.PermEditCustomer), s.updateCustomerField)
			customers.DELETE("/:id", s.requirePermission(models.PermDeleteCustomer), s.deleteCustomer)
			customers.GET("/:id/active-loans", s.requirePermission(models.PermViewLoan), s.customerActiveLoans)
		}

		loans := api.Group("/loans")
		loans.Use(s.requirePermission(models.PermViewLoan))
		{
			loans.GET("", s.listLoans)
			loans.POST("", s.requirePermission(models.PermCreateLoan), s.createLoan)
			loans.GET("/loan-repayments", s.statementRepayments)
			loans.GET("/:id", s.getLoan)
			loans.GET("/:id/schedules", s.loanSchedules)
			loans.GET("/:id/repayments", s.loanRepayments)
		}

		calculator := api.Group("/loan-calculator")
		{
			calculator.POST("/installment", s.calculateInstallment)
			calculator.POST("/top-up", s.calculateTopUp)
		}

		officers := api.Group("/loan-officers")
		{
			officers.GET("", s.requirePermission(models.PermViewUser), s.listLoanOfficers)
			officers.POST("", s.requirePermission(models.PermCreateUser), s.createLoanOfficer)
			officers.GET("/:id", s.requirePermission(models.PermViewUser), s.getLoanOfficer)
		}

		dashboard := api.Group("/dashboard")
		dashboard.Use(s.requirePermission(models.PermViewReports))
		{
			dashboard.GET("/stats", s.dashboardStats)
			dashboard.GET("/activities", s.dashboardActivities)
		}
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": s.now().UTC(),
		"service":   "kassolend-mockapi",
	})
}

func (s *Server) hashPassword(password string) (string, error) {
	return HashPassword(password, s.config.PasswordCost)
}

// Handler returns the HTTP handler, for embedding in tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database
func (s *Server) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
