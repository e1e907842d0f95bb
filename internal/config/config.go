// Package config builds the immutable run configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hugentobler/ralph/internal/model"
)

// Defaults for the watcher configuration.
const (
	DefaultSentinel        = "<promise>DONE</promise>"
	DefaultSuccessExitCode = 10
	DefaultHeartbeat       = 30 * time.Second
)

// Environment variable names recognized by FromEnv. No other package reads
// the environment for watcher behavior.
const (
	EnvSentinel        = "RALPH_COMPLETION_PROMISE"
	EnvSuccessExitCode = "RALPH_COMPLETION_EXIT_CODE"
	EnvRunStartEpoch   = "RALPH_RUN_START_EPOCH"
	EnvEmitHeader      = "RALPH_FINAL_OUTPUT_HEADER"
	EnvRawLogPath      = "RALPH_RAW_LOG_PATH"
	EnvProvider        = "RALPH_PROVIDER"
	EnvHeartbeatSecs   = "RALPH_HEARTBEAT_SECS"
)

// Config is the complete configuration for one watcher run. It is built
// once at startup and passed explicitly to every component.
type Config struct {
	Sentinel        string
	SuccessExitCode int
	Provider        model.Provider
	AutoDetect      bool
	RawLogPath      string
	EmitHeader      bool
	RunStartEpoch   int64
	Heartbeat       time.Duration
}

// FromEnv constructs a Config from the process environment. Invalid numeric
// values fall back to their defaults; nothing here errors.
func FromEnv() Config {
	cfg := Config{
		Sentinel:        DefaultSentinel,
		SuccessExitCode: DefaultSuccessExitCode,
		Provider:        model.ProviderUnknown,
		EmitHeader:      true,
		Heartbeat:       DefaultHeartbeat,
	}

	if v := os.Getenv(EnvSentinel); v != "" {
		cfg.Sentinel = v
	}
	if v := os.Getenv(EnvSuccessExitCode); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SuccessExitCode = n
		}
	}
	if v := os.Getenv(EnvRunStartEpoch); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.RunStartEpoch = n
		}
	}
	cfg.EmitHeader = headerEnabled(os.Getenv(EnvEmitHeader))
	cfg.RawLogPath = os.Getenv(EnvRawLogPath)

	switch v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvProvider))); v {
	case "auto":
		cfg.AutoDetect = true
	default:
		cfg.Provider = model.ParseProvider(v)
	}

	if v := os.Getenv(EnvHeartbeatSecs); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n <= 0 {
				cfg.Heartbeat = 0
			} else {
				cfg.Heartbeat = time.Duration(n) * time.Second
			}
		}
	}

	return cfg
}

// headerEnabled reports whether the final-output header is enabled for the
// given env value. Only explicit opt-out values disable it.
func headerEnabled(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
