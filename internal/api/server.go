package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Config holds HTTP server settings.
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:7878",
		AllowedOrigins: []string{"http://localhost:5173"},
	}
}

// Server serves ledger commands over HTTP.
type Server struct {
	ledger Ledger
	router *gin.Engine
	config Config
}

// NewServer builds the router for ledger.
func NewServer(ledger Ledger, config Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	if len(config.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  config.AllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	s := &Server{
		ledger: ledger,
		router: router,
		config: config,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.POST("/sync", s.handleSync)

	rules := s.router.Group("/tag-rules")
	rules.GET("", s.handleListTagRules)
	rules.POST("", s.handleSaveTagRule)

	ops := s.router.Group("/operations")
	ops.GET("", s.handleListOperations)
	ops.POST("/import", s.handleImportOperations)
	ops.POST("/:id/confirm", s.handleConfirmOperation)

	tags := s.router.Group("/tags")
	tags.GET("", s.handleListTags)
	tags.POST("", s.handleSaveTag)

	accounts := s.router.Group("/bank-accounts")
	accounts.GET("", s.handleListBankAccounts)
	accounts.POST("", s.handleSaveBankAccount)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
