package config

// Compile defaults.
const (
	DefaultCompileDebug  = false
	DefaultCompileIndent = ""
	DefaultSourceExt     = ".lx"
	DefaultOutputExt     = ".lua"
)

// Output and logging defaults.
const (
	DefaultColor     = "auto"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Server defaults.
const (
	DefaultServerHost   = "127.0.0.1"
	DefaultServerPort   = 8420
	DefaultReadTimeout  = "10s"
	DefaultWriteTimeout = "30s"
	DefaultIdleTimeout  = "60s"
	DefaultMaxBodySize  = "4MB"

	maxPort = 65535
)

// Cache and telemetry defaults.
const (
	DefaultCacheEnabled = true
	DefaultCacheEntries = 256
	DefaultCacheMaxSize = "64MB"
	DefaultPrometheus   = true
)
