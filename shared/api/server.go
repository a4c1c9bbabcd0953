// shared/api/server.go
package api

import (
	"context"
	"fmt"
	"log" // For internal server logging
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type BaseServer struct {
	Router *mux.Router
	Server *http.Server
	Logger *log.Logger
}

func NewBaseServer(addr string, logger *log.Logger) *BaseServer {
	if logger == nil {
		logger = log.Default()
	}

	router := mux.NewRouter()

	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware)

	// WriteTimeout is left unset: upgraded WebSocket connections manage their
	// own per-write deadlines and would otherwise be cut after the first window.
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &BaseServer{
		Router: router,
		Server: server,
		Logger: logger,
	}
}

func (bs *BaseServer) Start() error {
	bs.Logger.Printf("Starting HTTP server on %s...", bs.Server.Addr)
	// ListenAndServe returns http.ErrServerClosed on graceful shutdown
	if err := bs.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

func (bs *BaseServer) Shutdown(ctx context.Context) error {
	bs.Logger.Println("Shutting down HTTP server...")
	return bs.Server.Shutdown(ctx)
}
