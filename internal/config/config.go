// Package config resolves hello-compute settings from defaults, an optional
// dotenv file and the process environment. Command-line flags are applied on
// top by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvFile        = "HELLO_COMPUTE_ENV_FILE"
	EnvTraceDir    = "HELLO_COMPUTE_TRACE_DIR"
	EnvChromeTrace = "WGPU_CHROME_TRACING"
	EnvLogLevel    = "HELLO_COMPUTE_LOG_LEVEL"
	EnvPower       = "HELLO_COMPUTE_POWER"
	EnvBackend     = "HELLO_COMPUTE_BACKEND"
	EnvShader      = "HELLO_COMPUTE_SHADER"
	EnvStats       = "HELLO_COMPUTE_STATS"
)

// DefaultEnvFile is loaded when EnvFile is unset. A missing file is not an error.
const DefaultEnvFile = ".env"

// ErrInvalidValue is wrapped by every FieldError.
var ErrInvalidValue = errors.New("invalid value")

// FieldError describes a setting that failed validation.
type FieldError struct {
	Field string
	Value string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %s: %v %q", e.Field, ErrInvalidValue, e.Value)
}

// Unwrap returns ErrInvalidValue.
func (e *FieldError) Unwrap() error { return ErrInvalidValue }

// Power selects the adapter power preference.
type Power string

// Supported power preferences.
const (
	PowerDefault Power = "default"
	PowerLow     Power = "low"
	PowerHigh    Power = "high"
)

// Backend narrows adapter selection to one native API.
type Backend string

// Supported backends.
const (
	BackendAny    Backend = "any"
	BackendVulkan Backend = "vulkan"
	BackendMetal  Backend = "metal"
	BackendDX12   Backend = "dx12"
	BackendGL     Backend = "gl"
)

// Config holds every runtime setting.
type Config struct {
	TraceDir   string        // Directory for the rotated diagnostic log; empty disables it.
	LogLevel   slog.Level    // Minimum level written to stderr and the trace log.
	Power      Power         // Adapter power preference.
	Backend    Backend       // Native API restriction.
	ShaderPath string        // WGSL file to use instead of the embedded shader.
	Statistics bool          // Collect the compute-shader-invocation statistic.
	Parallel   int           // Number of independent concurrent invocations.
	Timeout    time.Duration // Per-caller bound when Parallel > 1; 0 waits forever.
	JSON       bool          // Emit one JSON object per invocation instead of text lines.
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:   slog.LevelWarn,
		Power:      PowerDefault,
		Backend:    BackendAny,
		Statistics: true,
		Parallel:   1,
		Timeout:    10 * time.Second,
	}
}

// Load returns Default overridden by the dotenv file and the environment.
// Variables already present in the environment win over the dotenv file.
func Load() (Config, error) {
	envFile := os.Getenv(EnvFile)
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, without touching files.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	cfg.TraceDir = getenv(EnvTraceDir)
	if cfg.TraceDir == "" {
		cfg.TraceDir = getenv(EnvChromeTrace)
	}
	cfg.ShaderPath = getenv(EnvShader)

	if v := getenv(EnvLogLevel); v != "" {
		level, err := ParseLogLevel(v)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = level
	}
	if v := getenv(EnvPower); v != "" {
		cfg.Power = Power(strings.ToLower(v))
	}
	if v := getenv(EnvBackend); v != "" {
		cfg.Backend = Backend(strings.ToLower(v))
	}
	if v := getenv(EnvStats); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, &FieldError{Field: EnvStats, Value: v}
		}
		cfg.Statistics = b
	}

	return cfg, cfg.Validate()
}

// Validate checks enumerated and numeric fields.
func (c Config) Validate() error {
	switch c.Power {
	case PowerDefault, PowerLow, PowerHigh:
	default:
		return &FieldError{Field: "power", Value: string(c.Power)}
	}
	switch c.Backend {
	case BackendAny, BackendVulkan, BackendMetal, BackendDX12, BackendGL:
	default:
		return &FieldError{Field: "backend", Value: string(c.Backend)}
	}
	if c.Parallel < 1 {
		return &FieldError{Field: "parallel", Value: strconv.Itoa(c.Parallel)}
	}
	if c.Timeout < 0 {
		return &FieldError{Field: "timeout", Value: c.Timeout.String()}
	}
	return nil
}

// ParseLogLevel accepts debug, info, warn/warning and error, case-insensitively.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, &FieldError{Field: "log level", Value: s}
	}
}
