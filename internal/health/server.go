// Package health exposes the liveness HTTP endpoint required by the
// hosting environment. It carries no business logic.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const aliveResponse = "Bot is alive!"

// Server is a minimal HTTP server answering liveness probes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the liveness server bound to addr.
func NewServer(addr string, debug bool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      Routes(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger.With("component", "health_server"),
	}
}

// Routes builds the gin engine with the liveness endpoints.
func Routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	alive := func(c *gin.Context) {
		c.String(http.StatusOK, aliveResponse)
	}
	router.GET("/", alive)
	router.GET("/health", alive)
	router.GET("/ping", alive)

	return router
}

// Run serves requests until the context is cancelled, then shuts down
// gracefully. It returns nil on clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Starting health server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down health server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Health server shutdown error", "error", err)
		return err
	}
	return nil
}
