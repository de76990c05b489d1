package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/couchman/internal/domain"
	logpkg "github.com/kailas-cloud/couchman/internal/logger"
	"github.com/kailas-cloud/couchman/internal/metrics"
	chiTransport "github.com/kailas-cloud/couchman/internal/transport/chi"
	"github.com/kailas-cloud/couchman/internal/version"
)

func cmdServe(ctx context.Context, a *app, args []string) error {
	if _, err := parseSub(subFlags(a, "serve"), args, 0, 0); err != nil {
		return err
	}
	logger := a.logger
	cfg := a.cfg

	logger.Info("Starting couchman console",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("couchdb_url", a.store.BaseURL()),
		zap.Bool("default_credentials", a.hasCredentials()),
	)

	readiness := time.Duration(cfg.CouchDB.ReadinessTimeoutSec) * time.Second
	switch err := a.server.WaitForReady(ctx, readiness); {
	case err == nil:
		logger.Info("Connected to CouchDB")
	case errors.Is(err, domain.ErrUnauthorized):
		// Operators still bring their own credentials per request.
		logger.Warn("CouchDB rejected the default credentials", zap.Error(err))
	default:
		return fmt.Errorf("couchdb not ready: %w", err)
	}

	metrics.RegisterCouchDBMetrics()
	metrics.RegisterHTTPMetrics()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      a.consoleHandler(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Console stopped with error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// consoleHandler assembles the router and middleware chain.
func (a *app) consoleHandler() http.Handler {
	server := chiTransport.NewServer(a.databases, a.indexes, a.documents, a.health, a.logger).
		WithDefaultCredentials(a.hasCredentials())

	r := chi.NewRouter()
	r.Use(jsonRecoverer(a.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(a.logger))
	r.Use(chiTransport.BasicAuthPassthrough())
	r.Use(metrics.Middleware())
	server.Routes(r)
	return r
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
// The operator is logged by name only; passwords never reach the log.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			user, _, _ := r.BasicAuth()
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("operator", user),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
