// Package httpapi is the HTTP plumbing over the account service: it decodes
// requests, delegates to services.UserService, and renders results and error
// kinds as JSON. No business decision lives here.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poslynx/tillkeeper/internal/logging"
	"github.com/poslynx/tillkeeper/internal/server/services"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(users *services.UserService, logger logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	h := &Handler{users: users, logger: logger}

	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/refresh", h.Refresh)
	api.GET("/me", h.RequireAuth, h.Me)

	return r
}

// Server wraps the HTTP server with graceful shutdown.
type Server struct {
	srv    *http.Server
	logger logging.Logger
}

func NewServer(addr string, users *services.UserService, logger logging.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(users, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info(shutdownCtx, "shutting down http server")
	return s.srv.Shutdown(shutdownCtx)
}
