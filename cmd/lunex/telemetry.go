package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/Sumatoshi-tech/lunex/pkg/config"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex"
	"github.com/Sumatoshi-tech/lunex/pkg/observability"
	"github.com/Sumatoshi-tech/lunex/pkg/version"
)

// observabilityConfig maps the loaded settings onto an observability
// config. OTEL_EXPORTER_OTLP_* variables fill in what the file leaves unset.
func observabilityConfig(cfg *config.Config, mode observability.AppMode, verbose bool) observability.Config {
	obs := observability.DefaultConfig()
	obs.ServiceVersion = version.Version
	obs.Environment = cfg.Telemetry.Environment
	obs.Mode = mode
	obs.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obs.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obs.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obs.SampleRatio = cfg.Telemetry.SampleRatio
	obs.TraceVerbose = cfg.Telemetry.TraceVerbose
	obs.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obs.LogJSON = cfg.Logging.Format == formatJSON

	// Only the long-running server exposes a scrape endpoint.
	obs.Prometheus = mode == observability.ModeServe && cfg.Telemetry.Prometheus

	if obs.OTLPEndpoint == "" {
		obs.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	if len(obs.OTLPHeaders) == 0 {
		obs.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	}

	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true" {
		obs.OTLPInsecure = true
	}

	if verbose {
		obs.LogLevel = slog.LevelDebug
	}

	return obs
}

// initObservability sets up providers for one command run. The returned
// func flushes them and must be deferred.
func initObservability(cfg *config.Config, mode observability.AppMode, verbose bool) (observability.Providers, func(), error) {
	providers, err := observability.Init(observabilityConfig(cfg, mode, verbose))
	if err != nil {
		return observability.Providers{}, nil, err
	}

	shutdown := func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}

	return providers, shutdown, nil
}

// newCompiler builds a compiler reporting to providers.
func newCompiler(providers observability.Providers) *lunex.Compiler {
	return lunex.NewCompiler(
		lunex.WithLogger(providers.Logger),
		lunex.WithTracer(providers.Tracer),
		lunex.WithMeter(providers.Meter),
	)
}
