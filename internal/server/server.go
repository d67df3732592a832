// Package server wires the HTTP router and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/FuadModaresi/music-analysis/internal/api"
	"github.com/FuadModaresi/music-analysis/internal/config"
	"github.com/FuadModaresi/music-analysis/internal/middleware"
	"github.com/FuadModaresi/music-analysis/internal/server/handlers"
)

const shutdownTimeout = 5 * time.Second

// Deps are the collaborators the router needs.
type Deps struct {
	Analyzer  handlers.Analyzer
	Config    config.ServerConfig
	Logger    hclog.Logger
	StartedAt time.Time
}

// SetupRouter configures and returns the main router.
func SetupRouter(deps Deps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if deps.Config.GinMode != "" {
		gin.SetMode(deps.Config.GinMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = deps.Config.MaxMultipartMemory
	if err := r.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		log.Warn("ignoring invalid trusted proxies", "proxies", deps.Config.TrustedProxies, "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log.Named("http")),
		api.ErrorMiddleware(),
	)

	setupRoutes(r, deps, log)
	return r
}

// New builds the http.Server for handler from the server settings.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           cfg.Address(),
		Handler:        handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}
}

// Serve accepts connections on ln until ctx is done, then shuts srv down
// gracefully. It returns nil after a clean shutdown.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, log hclog.Logger) error {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server shutdown complete")
	return nil
}

// ListenAndServe listens on srv.Addr and calls Serve.
func ListenAndServe(ctx context.Context, srv *http.Server, log hclog.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, srv, ln, log)
}
