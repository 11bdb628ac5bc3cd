// Package stubserver is a local stand-in for the product mapping service. It
// serves the same endpoints from uploaded CSV files with a deterministic
// token matcher in place of embeddings, for development and end-to-end tests.
package stubserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultThreshold is the minimum similarity for a semantic match.
const DefaultThreshold = 0.8

// Config configures a Server.
type Config struct {
	DataDir string
	// Delay is added to the preprocess and match stages to imitate slow work.
	Delay time.Duration
	// TLS, when set, makes Run serve HTTPS.
	TLS       *tls.Config
	Threshold float64
	Debug     bool
}

// Server is the stub pipeline service.
type Server struct {
	router  *gin.Engine
	metrics *Metrics
	cfg     Config

	mu           sync.Mutex
	internalPath string
	externalPath string
	internal     []string
	external     []string
	records      []map[string]any
	preprocessed bool
}

// New creates a server storing files under cfg.DataDir.
func New(cfg Config) (*Server, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:  gin.New(),
		metrics: NewMetrics(),
		cfg:     cfg,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), requestLogger(), s.metrics.Middleware())

	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.POST("/upload", s.handleUpload)
	s.router.POST("/preprocess", s.handlePreprocess)
	s.router.POST("/match", s.handleMatch)
	s.router.GET("/view-mapped", s.handleViewMapped)
	s.router.POST("/check-accuracy", s.handleCheckAccuracy)
	s.router.GET("/download/:filename", s.handleDownload)

	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler exposes the router for embedding in an http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         s.cfg.TLS,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Stub pipeline service listening", "addr", addr, "data_dir", s.cfg.DataDir, "tls", s.cfg.TLS != nil)
		if s.cfg.TLS != nil {
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)

		c.Next()

		slog.Info("Handled request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// simulateWork sleeps for the configured delay. It returns false when the
// client went away first.
func (s *Server) simulateWork(c *gin.Context) bool {
	if s.cfg.Delay <= 0 {
		return true
	}
	timer := time.NewTimer(s.cfg.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.Request.Context().Done():
		return false
	}
}
