package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the corresponding field is zero.
const (
	DefaultAddr                 = ":8741"
	DefaultReconnectInterval    = 3 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultPingInterval         = 30 * time.Second
	DefaultEventLogLimit        = 500
	DefaultWriteTimeout         = 10 * time.Second
	DefaultMetricsPath          = "/metrics"
)

// Load reads the YAML configuration at path. A .env file next to the working
// directory is loaded first so ${VAR} references in the YAML can resolve.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}

	setDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every default applied, used when no
// config file is given.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.RosterStore == "" {
		cfg.Server.RosterStore = "memory"
	}
	if cfg.Server.EventLogLimit == 0 {
		cfg.Server.EventLogLimit = DefaultEventLogLimit
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.Redis.Prefix == "" {
		cfg.Server.Redis.Prefix = "syncroom"
	}
	if cfg.Client.ReconnectInterval == 0 {
		cfg.Client.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.Client.MaxReconnectAttempts == 0 {
		cfg.Client.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.Client.PingInterval == 0 {
		cfg.Client.PingInterval = DefaultPingInterval
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
