// Package server implements the GoBarber HTTP API: sessions, accounts,
// profile, password recovery and appointments.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gobarber/gobarber/internal/auth"
	"github.com/gobarber/gobarber/internal/config"
	"github.com/gobarber/gobarber/internal/models"
)

// Enqueuer is the part of *asynq.Client the handlers use
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	db      *gorm.DB
	config  *config.Config
	logger  zerolog.Logger
	tasks   Enqueuer
	metrics *metrics
	clock   func() time.Time
	version string
}

// Option customizes a Server, mainly for tests
type Option func(*Server)

// WithDB uses db instead of opening cfg.Database.URL
func WithDB(db *gorm.DB) Option {
	return func(s *Server) { s.db = db }
}

// WithEnqueuer uses e instead of an asynq client for cfg.Redis.Address
func WithEnqueuer(e Enqueuer) Option {
	return func(s *Server) { s.tasks = e }
}

// WithClock overrides the time source used for booking and token checks
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.clock = now }
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	server := &Server{
		config:  cfg,
		logger:  zlog,
		clock:   time.Now,
		version: version,
	}
	for _, opt := range opts {
		opt(server)
	}

	// Initialize database with production settings
	if server.db == nil {
		db, err := initDatabase(cfg, zlog)
		if err != nil {
			return nil, err
		}
		server.db = db
	}

	// Run database migrations
	if err := models.AutoMigrate(server.db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize JWT authentication from the persisted secret
	if err := ensureJWTSecret(server.db, zlog); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Storage.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	// Initialize Asynq client for enqueueing tasks
	if server.tasks == nil {
		server.tasks = asynq.NewClient(asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		})
	}

	setupValidator()
	server.metrics = newMetrics()

	// Setup router
	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8    // Reduced for SQLite efficiency
		maxIdleConns    = 4    // Reduced proportionally
		connMaxLifetime = 300  // 5 minutes
		busyTimeout     = 5000 // 5 seconds
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
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

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
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

// ensureJWTSecret loads the signing secret, generating and persisting one on
// first boot
func ensureJWTSecret(db *gorm.DB, zlog zerolog.Logger) error {
	var cfg models.Config
	err := db.First(&cfg).Error
	if err == nil {
		auth.InitializeJWT(cfg.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 64 hex characters = 32 bytes of randomness
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	cfg = models.Config{JWTSecret: hex.EncodeToString(secretBytes)}
	if err := db.Create(&cfg).Error; err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	auth.InitializeJWT(cfg.JWTSecret)
	zlog.Info().Msg("Generated JWT secret on first boot")
	return nil
}

// setupValidator makes gin's validator report JSON field names
func setupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.MaxMultipartMemory = 8 << 20 // 8 MiB avatars

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.metrics.middleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check and metrics (no auth required)
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(s.metrics.handler()))

	// Uploaded avatars
	s.router.Static("/files", s.config.Storage.Dir)

	// Public endpoints
	s.router.POST("/sessions", s.createSession)
	s.router.POST("/users", s.createUser)
	s.router.POST("/password/retrieve", s.retrievePassword)
	s.router.POST("/password/reset", s.resetPassword)

	// Authenticated routes (JWT required)
	api := s.router.Group("/")
	api.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		api.GET("/profile", s.getProfile)
		api.PUT("/profile", s.updateProfile)
		api.PATCH("/users/avatar", s.updateAvatar)

		api.GET("/providers", s.listProviders)
		api.GET("/appointments/me", s.listProviderAppointments)
		api.POST("/appointments", s.createAppointment)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "gobarber-api",
		"version":   s.version,
	})
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	port := ":" + s.config.Server.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              port,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if closer, ok := s.tasks.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing Asynq client")
		}
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
