package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/lunex/pkg/cache"
	"github.com/Sumatoshi-tech/lunex/pkg/config"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/observability"
)

const (
	compileCacheName = "compile"
	readyCheckSource = "local ready = true"

	// serverTimeout is the shutdown budget when no write timeout is set.
	serverTimeout = 5 * time.Second
)

// CompileRequest holds the request body for the compile API endpoint.
type CompileRequest struct {
	Code   string `json:"code"`
	Debug  bool   `json:"debug,omitempty"`
	Indent string `json:"indent,omitempty"`
}

// CompileResponse holds the response body for the compile API endpoint.
type CompileResponse struct {
	Output     string           `json:"output,omitempty"`
	Helpers    []string         `json:"helpers,omitempty"`
	Diagnostic *diag.Diagnostic `json:"diagnostic,omitempty"`
	Kind       string           `json:"kind,omitempty"`
	Error      string           `json:"error,omitempty"`
}

func serveCmd(root *rootOptions) *cobra.Command {
	var host string

	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP compile service",
		Long: `Start an HTTP service that compiles lunex sources.

Endpoints:
  POST /api/compile   {"code": "...", "debug": false, "indent": ""}
  GET  /healthz       liveness
  GET  /readyz        readiness
  GET  /metrics       Prometheus metrics (when telemetry.prometheus is set)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.settings()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, root.verbose)
		},
	}

	cmd.Flags().StringVar(&host, "host", config.DefaultServerHost, "interface to listen on")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultServerPort, "port to listen on")

	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, verbose bool) error {
	providers, shutdown, err := initObservability(cfg, observability.ModeServe, verbose)
	if err != nil {
		return err
	}
	defer shutdown()

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return err
	}

	maxBody, err := cfg.Server.MaxBodyBytes()
	if err != nil {
		return err
	}

	compiles, err := newCompileCache(cfg, newCompiler(providers))
	if err != nil {
		return err
	}

	err = observability.RegisterCacheMetrics(providers.Meter, map[string]observability.CacheStatsProvider{
		compileCacheName: compiles,
	})
	if err != nil {
		return err
	}

	svc := &compileService{compiles: compiles, maxBody: maxBody, logger: providers.Logger}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newServerMux(svc, providers.Tracer, red, providers.MetricsHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		providers.Logger.Info("lunex server starting", "addr", "http://"+cfg.Server.Addr())
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	providers.Logger.Info("lunex server stopping")

	timeout := cfg.Server.WriteTimeout
	if timeout <= 0 {
		timeout = serverTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

// newCompileCache wraps compiler with the configured cache. A disabled
// cache keeps a single entry so identical back-to-back requests still hit.
func newCompileCache(cfg *config.Config, compiler *lunex.Compiler) (*cache.Compiles, error) {
	if !cfg.Cache.Enabled {
		return cache.NewCompiles(compiler, 1, 0), nil
	}

	maxBytes, err := cfg.Cache.MaxBytes()
	if err != nil {
		return nil, err
	}

	return cache.NewCompiles(compiler, cfg.Cache.Entries, maxBytes), nil
}

// newServerMux creates the HTTP mux. API routes are wrapped in tracing and
// RED middleware; health checks and metrics are not.
func newServerMux(svc *compileService, tracer trace.Tracer, red *observability.REDMetrics, metrics http.Handler) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/api/compile", svc.handleCompile)

	mux := http.NewServeMux()
	mux.Handle("/api/", observability.HTTPMiddleware(tracer, red, api))
	mux.Handle("/healthz", observability.HealthHandler())
	mux.Handle("/readyz", observability.ReadyHandler(observability.ReadyCheck{
		Name:  "compiler",
		Check: svc.ready,
	}))

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return mux
}

type compileService struct {
	compiles *cache.Compiles
	maxBody  int64
	logger   *slog.Logger
}

// ready compiles a fixed source.
func (svc *compileService) ready(ctx context.Context) error {
	_, err := svc.compiles.Compile(ctx, readyCheckSource, lunex.Options{})

	return err
}

func (svc *compileService) handleCompile(rw http.ResponseWriter, hr *http.Request) {
	if hr.Method != http.MethodPost {
		rw.Header().Set("Allow", http.MethodPost)
		http.Error(rw, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	var req CompileRequest

	decodeErr := json.NewDecoder(http.MaxBytesReader(rw, hr.Body, svc.maxBody)).Decode(&req)
	if decodeErr != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(decodeErr, &tooLarge) {
			writeJSON(hr.Context(), rw, http.StatusRequestEntityTooLarge, CompileResponse{Error: "request body too large"})

			return
		}

		writeJSON(hr.Context(), rw, http.StatusBadRequest, CompileResponse{Error: "invalid request body"})

		return
	}

	if strings.Trim(req.Indent, " \t") != "" {
		writeJSON(hr.Context(), rw, http.StatusBadRequest, CompileResponse{Error: config.ErrInvalidIndent.Error()})

		return
	}

	res, err := svc.compiles.Compile(hr.Context(), req.Code, lunex.Options{Debug: req.Debug, Indent: req.Indent})
	if err != nil {
		if d, ok := diag.As(err); ok {
			writeJSON(hr.Context(), rw, http.StatusUnprocessableEntity, CompileResponse{
				Diagnostic: d,
				Kind:       d.Kind.String(),
				Error:      d.Error(),
			})

			return
		}

		svc.logger.ErrorContext(hr.Context(), "compile failed", "error", err)
		writeJSON(hr.Context(), rw, http.StatusInternalServerError, CompileResponse{Error: "internal error"})

		return
	}

	writeJSON(hr.Context(), rw, http.StatusOK, CompileResponse{Output: res.Output, Helpers: res.Helpers})
}

// writeJSON encodes the given value as JSON and writes it to the response writer.
func writeJSON(ctx context.Context, rw http.ResponseWriter, status int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		slog.Default().ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}
