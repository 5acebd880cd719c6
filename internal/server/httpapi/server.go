package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// Server runs the HTTP endpoint until its context is cancelled.
type Server struct {
	address         string
	handler         http.Handler
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewServer(address string, handler http.Handler, logger logging.Logger, shutdownTimeout time.Duration) *Server {
	return &Server{
		address:         address,
		handler:         handler,
		logger:          logger.With("module", "http_server"),
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.handler,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
