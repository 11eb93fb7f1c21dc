// Package httpapi exposes the block store over a JSON HTTP API. Routing is
// chi based; only uuids ever cross this boundary, internal numeric ids and
// materialized paths stay behind it.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"blockvault/internal/logging"
	"blockvault/internal/server/services"
)

// tokenVerifier is the part of the user service the auth middleware needs.
type tokenVerifier interface {
	VerifyAccessToken(tokenString string) (string, error)
}

type HTTPServer struct {
	address  string
	logger   logging.Logger
	verifier tokenVerifier
	users    *services.UserService
	blocks   *services.BlockService
	fields   *services.FieldService
	search   *services.SearchService
	transfer *services.TransferService
}

func NewHTTPServer(
	address string,
	logger logging.Logger,
	users *services.UserService,
	blocks *services.BlockService,
	fields *services.FieldService,
	search *services.SearchService,
	transfer *services.TransferService,
) *HTTPServer {
	return &HTTPServer{
		address:  address,
		logger:   logger.With("module", "http_server"),
		verifier: users,
		users:    users,
		blocks:   blocks,
		fields:   fields,
		search:   search,
		transfer: transfer,
	}
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
