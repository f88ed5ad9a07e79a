package config

import "time"

// Config is the root configuration for both the syncroomd server and the
// client tooling.
type Config struct {
	Logger  LoggerConfig  `yaml:"logger"`
	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggerConfig represents the logger configuration
type LoggerConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	Output     string `yaml:"output"`      // stdout, file
	FilePath   string `yaml:"file_path"`   // path to log file when output is file
	MaxSize    int    `yaml:"max_size"`    // max file size in MB before rotation
	MaxBackups int    `yaml:"max_backups"` // rotated files to keep
	MaxAge     int    `yaml:"max_age"`     // days to keep rotated files
	Compress   bool   `yaml:"compress"`    // compress rotated files
	Color      bool   `yaml:"color"`       // colorize console output
	Stacktrace bool   `yaml:"stacktrace"`  // attach stacktraces at error level
}

// ServerConfig configures the room hub daemon.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`            // listen address, e.g. ":8741"
	RosterStore   string        `yaml:"roster_store"`    // memory or redis
	Redis         RedisConfig   `yaml:"redis"`           // used when roster_store is redis
	EventLogLimit int           `yaml:"event_log_limit"` // bounded per-room event log
	WriteTimeout  time.Duration `yaml:"write_timeout"`   // per-frame write deadline
}

// RedisConfig configures the Redis-backed roster store.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// ClientConfig carries the connection manager knobs.
type ClientConfig struct {
	URL                  string        `yaml:"url"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval"`     // delay between reconnect attempts
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"` // attempts before giving up
	PingInterval         time.Duration `yaml:"ping_interval"`          // unset uses the default; negative disables the heartbeat
}

// MetricsConfig configures the prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}
