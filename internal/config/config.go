package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Addr      string
	AuthToken string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// RollupConfig holds the daily volume rollup settings.
type RollupConfig struct {
	Enabled bool
	Cron    string
}

// BarkConfig holds Bark notification settings.
type BarkConfig struct {
	URL     string
	Enabled bool
}

// NotificationConfig holds all notification settings.
type NotificationConfig struct {
	Bark BarkConfig
}

// Config holds all runtime configuration options for the daemon.
type Config struct {
	Server       ServerConfig
	Log          LogConfig
	Rollup       RollupConfig
	Notification NotificationConfig

	StateDir      string
	Mode          string
	UseUTC        bool
	ShutdownGrace time.Duration
}

const (
	defaultAddr          = "0.0.0.0:8080"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultMode          = "http"
	defaultRollupCron    = "0 0 * * *"
	defaultShutdownGrace = 5 * time.Second
)

func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		lower := strings.ToLower(val)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// Parse parses command line flags and environment variables into Config.
// Priority: CLI flags > environment variables > .env file > defaults.
func Parse() (*Config, error) {
	// Load .env if present: current directory first, then the config dir.
	envFiles := []string{".env"}
	if configDir, err := os.UserConfigDir(); err == nil {
		envFiles = append(envFiles, filepath.Join(configDir, "web-to-do", ".env"))
	}
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		Server: ServerConfig{
			Addr:      getEnvString("TODO_ADDR", defaultAddr),
			AuthToken: getEnvString("TODO_AUTH_TOKEN", ""),
		},
		Log: LogConfig{
			Level:  getEnvString("TODO_LOG_LEVEL", defaultLogLevel),
			Format: getEnvString("TODO_LOG_FORMAT", defaultLogFormat),
		},
		Rollup: RollupConfig{
			Enabled: getEnvBool("TODO_ROLLUP_ENABLED", false),
			Cron:    getEnvString("TODO_ROLLUP_CRON", defaultRollupCron),
		},
		Notification: NotificationConfig{
			Bark: BarkConfig{
				URL:     getEnvString("TODO_BARK_URL", ""),
				Enabled: getEnvBool("TODO_BARK_ENABLED", false),
			},
		},
		StateDir:      getEnvString("TODO_STATE_DIR", ""),
		Mode:          getEnvString("TODO_MODE", defaultMode),
		UseUTC:        getEnvBool("TODO_USE_UTC", false),
		ShutdownGrace: getEnvDuration("TODO_SHUTDOWN_GRACE", defaultShutdownGrace),
	}

	var addr, logLevel, logFormat, stateDir, mode, rollupCron string
	var useUTC, rollupEnabled bool
	var shutdownGrace time.Duration

	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides env)")
	flag.StringVar(&stateDir, "state-dir", "", "Directory holding the record store")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&logFormat, "log-format", "", "Log format (text, json)")
	flag.StringVar(&mode, "mode", "", "Run mode (http, mcp, both)")
	flag.StringVar(&rollupCron, "rollup-cron", "", "Cron expression for the daily volume rollup")
	flag.BoolVar(&rollupEnabled, "rollup", false, "Enable the daily volume rollup job")
	flag.BoolVar(&useUTC, "use-utc", false, "Use UTC for week and month bucketing instead of local time")
	flag.DurationVar(&shutdownGrace, "shutdown-grace", 0, "Grace period when shutting down")

	flag.Parse()

	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if mode != "" {
		cfg.Mode = mode
	}
	if rollupCron != "" {
		cfg.Rollup.Cron = rollupCron
	}
	// Bool flags only override when explicitly set.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "use-utc":
			cfg.UseUTC = useUTC
		case "rollup":
			cfg.Rollup.Enabled = rollupEnabled
		case "shutdown-grace":
			cfg.ShutdownGrace = shutdownGrace
		}
	})

	switch cfg.Mode {
	case "http", "mcp", "both":
	default:
		return nil, fmt.Errorf("invalid mode %q: must be http, mcp or both", cfg.Mode)
	}

	if cfg.StateDir == "" {
		dir, err := defaultStateDir()
		if err != nil {
			return nil, fmt.Errorf("resolve default state dir: %w", err)
		}
		cfg.StateDir = dir
	}

	return cfg, nil
}

func defaultStateDir() (string, error) {
	baseDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(baseDir, "web-to-do")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}
