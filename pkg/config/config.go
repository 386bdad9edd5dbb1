// Package config loads the lunex configuration from lunex.yaml and LUNEX_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort      = errors.New("invalid server port")
	ErrInvalidIndent    = errors.New("indent must only hold spaces and tabs")
	ErrInvalidExtension = errors.New("invalid file extension")
	ErrSameExtension    = errors.New("source and output extensions must differ")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidColor     = errors.New("invalid color mode")
	ErrInvalidSize      = errors.New("invalid size")
	ErrInvalidEntries   = errors.New("cache entries must not be negative")
	ErrInvalidRatio     = errors.New("sample ratio must be within [0, 1]")
	ErrSchema           = errors.New("configuration does not match schema")
)

// Config holds all lunex configuration.
type Config struct {
	Compile   CompileConfig   `mapstructure:"compile"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// CompileConfig holds the compile defaults of every mode.
type CompileConfig struct {
	Debug     bool   `mapstructure:"debug"`
	Indent    string `mapstructure:"indent"`
	SourceExt string `mapstructure:"source_ext"`
	OutputExt string `mapstructure:"output_ext"`
}

// OutputConfig holds CLI output settings.
type OutputConfig struct {
	Dir   string `mapstructure:"dir"`
	Color string `mapstructure:"color"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds the HTTP compile service settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodySize  string        `mapstructure:"max_body_size"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// MaxBodyBytes parses MaxBodySize.
func (s ServerConfig) MaxBodyBytes() (int64, error) {
	return parseSize(s.MaxBodySize)
}

// CacheConfig holds the compile cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Entries int    `mapstructure:"entries"`
	MaxSize string `mapstructure:"max_size"`
}

// MaxBytes parses MaxSize. Empty means unbounded by size.
func (c CacheConfig) MaxBytes() (int64, error) {
	if c.MaxSize == "" {
		return 0, nil
	}

	return parseSize(c.MaxSize)
}

// TelemetryConfig holds tracing and metrics export settings.
type TelemetryConfig struct {
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	TraceVerbose bool    `mapstructure:"trace_verbose"`
	Prometheus   bool    `mapstructure:"prometheus"`
}

// LoadConfig loads configuration from configPath, or from lunex.yaml in the
// working directory or the user config directory when configPath is empty.
// A missing default file is not an error; a missing explicit file is.
// LUNEX_ environment variables override file values ("server.port" is
// LUNEX_SERVER_PORT).
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("lunex")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME/.config/lunex")
	}

	viperCfg.SetEnvPrefix("LUNEX")
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	if used := viperCfg.ConfigFileUsed(); used != "" && readErr == nil {
		if err := ValidateFile(used); err != nil {
			return nil, err
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var config Config

	// Defaults always decode.
	_ = viperCfg.Unmarshal(&config)

	return &config
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("compile.debug", DefaultCompileDebug)
	viperCfg.SetDefault("compile.indent", DefaultCompileIndent)
	viperCfg.SetDefault("compile.source_ext", DefaultSourceExt)
	viperCfg.SetDefault("compile.output_ext", DefaultOutputExt)

	viperCfg.SetDefault("output.dir", "")
	viperCfg.SetDefault("output.color", DefaultColor)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.read_timeout", DefaultReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultIdleTimeout)
	viperCfg.SetDefault("server.max_body_size", DefaultMaxBodySize)

	viperCfg.SetDefault("cache.enabled", DefaultCacheEnabled)
	viperCfg.SetDefault("cache.entries", DefaultCacheEntries)
	viperCfg.SetDefault("cache.max_size", DefaultCacheMaxSize)

	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.trace_verbose", false)
	viperCfg.SetDefault("telemetry.prometheus", DefaultPrometheus)
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	if strings.Trim(config.Compile.Indent, " \t") != "" {
		return fmt.Errorf("%w: %q", ErrInvalidIndent, config.Compile.Indent)
	}

	for _, ext := range []string{config.Compile.SourceExt, config.Compile.OutputExt} {
		if len(ext) < 2 || ext[0] != '.' || strings.ContainsAny(ext[1:], "./\\") {
			return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
		}
	}

	if config.Compile.SourceExt == config.Compile.OutputExt {
		return fmt.Errorf("%w: %q", ErrSameExtension, config.Compile.SourceExt)
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	if config.Logging.Format != "text" && config.Logging.Format != "json" {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	switch config.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColor, config.Output.Color)
	}

	if _, err := config.Server.MaxBodyBytes(); err != nil {
		return err
	}

	if _, err := config.Cache.MaxBytes(); err != nil {
		return err
	}

	if config.Cache.Entries < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidEntries, config.Cache.Entries)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidRatio, config.Telemetry.SampleRatio)
	}

	return nil
}

func parseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidSize, s, err)
	}

	return int64(n), nil
}
