package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lunex/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lunex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultSourceExt, cfg.Compile.SourceExt)
	assert.Equal(t, config.DefaultOutputExt, cfg.Compile.OutputExt)
	assert.False(t, cfg.Compile.Debug)
	assert.Empty(t, cfg.Compile.Indent)
	assert.Equal(t, config.DefaultColor, cfg.Output.Color)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, config.DefaultCacheEntries, cfg.Cache.Entries)
	assert.True(t, cfg.Telemetry.Prometheus)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `compile:
  debug: true
  indent: "    "
  source_ext: .lux
output:
  dir: build
  color: never
logging:
  level: debug
  format: json
server:
  host: 0.0.0.0
  port: 9000
  write_timeout: 5s
  max_body_size: 1MiB
cache:
  entries: 32
  max_size: 8MB
telemetry:
  otlp_endpoint: localhost:4317
  otlp_headers: "api-key=x"
  sample_ratio: 0.25
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Compile.Debug)
	assert.Equal(t, "    ", cfg.Compile.Indent)
	assert.Equal(t, ".lux", cfg.Compile.SourceExt)
	assert.Equal(t, "build", cfg.Output.Dir)
	assert.Equal(t, "never", cfg.Output.Color)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, 5*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 32, cfg.Cache.Entries)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRatio, 0.0001)

	body, err := cfg.Server.MaxBodyBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), body)

	size, err := cfg.Cache.MaxBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(8_000_000), size)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("LUNEX_SERVER_PORT", "9100")
	t.Setenv("LUNEX_COMPILE_DEBUG", "true")

	cfg, err := config.LoadConfig(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.True(t, cfg.Compile.Debug)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"unknown key", "compile:\n  minify: true\n", config.ErrSchema},
		{"bad color", "output:\n  color: rainbow\n", config.ErrSchema},
		{"port out of range", "server:\n  port: 70000\n", config.ErrSchema},
		{"same extensions", "compile:\n  source_ext: .lua\n", config.ErrSameExtension},
		{"bad size", "cache:\n  max_size: lots\n", config.ErrInvalidSize},
		{"bad indent", "compile:\n  indent: \"--\"\n", config.ErrSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateYAML(t *testing.T) {
	t.Parallel()

	require.NoError(t, config.ValidateYAML([]byte("logging:\n  level: warn\n")))
	require.NoError(t, config.ValidateYAML(nil))

	err := config.ValidateYAML([]byte("logging:\n  level: loud\n  format: xml\n"))
	require.ErrorIs(t, err, config.ErrSchema)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "logging.format")
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.Equal(t, "127.0.0.1:8420", cfg.Server.Addr())
	assert.Equal(t, config.DefaultLogFormat, cfg.Logging.Format)
	assert.NotEmpty(t, config.Schema())
}
