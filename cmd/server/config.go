package main

import (
	"flag"

	"github.com/ilyakaznacheev/cleanenv"

	configpkg "github.com/idudko/storefront-latency/internal/config"
)

const (
	defaultAddress       = "localhost:8080"
	defaultWindowSize    = 1000
	defaultLogLevel      = "info"
	defaultIngestRate    = 50
	defaultExportWorkers = 2
	defaultExportQueue   = 1024
	defaultRedisMaxLen   = 10000
)

// JSONConfig represents configuration from JSON file
type JSONConfig struct {
	Address       string  `json:"address"`
	WindowSize    int     `json:"window_size"`
	LogLevel      string  `json:"log_level"`
	TrustedSubnet string  `json:"trusted_subnet"`
	IngestRate    float64 `json:"ingest_rate"`
	ExportFile    string  `json:"export_file"`
	ExportURL     string  `json:"export_url"`
	DatabaseDSN   string  `json:"database_dsn"`
	NatsURL       string  `json:"nats_url"`
	RedisAddr     string  `json:"redis_addr"`
	ExportWorkers int     `json:"export_workers"`
	ExportQueue   int     `json:"export_queue"`
}

// Config represents the full configuration
type Config struct {
	Address       string  `env:"ADDRESS"`
	WindowSize    int     `env:"WINDOW_SIZE"`
	LogLevel      string  `env:"LOG_LEVEL"`
	LogPretty     bool    `env:"LOG_PRETTY"`
	Key           string  `env:"KEY"`
	TrustedSubnet string  `env:"TRUSTED_SUBNET"`
	IngestRate    float64 `env:"INGEST_RATE"`
	ExportFile    string  `env:"EXPORT_FILE"`
	ExportURL     string  `env:"EXPORT_URL"`
	DSN           string  `env:"DATABASE_DSN"`
	NatsURL       string  `env:"NATS_URL"`
	RedisAddr     string  `env:"REDIS_ADDR"`
	RedisMaxLen   int64   `env:"REDIS_MAXLEN"`
	ExportWorkers int     `env:"EXPORT_WORKERS"`
	ExportQueue   int     `env:"EXPORT_QUEUE"`

	configFile string
	envFile    string
}

func defaultConfig() Config {
	return Config{
		Address:       defaultAddress,
		WindowSize:    defaultWindowSize,
		LogLevel:      defaultLogLevel,
		IngestRate:    defaultIngestRate,
		RedisMaxLen:   defaultRedisMaxLen,
		ExportWorkers: defaultExportWorkers,
		ExportQueue:   defaultExportQueue,
	}
}

// loadConfig builds the server configuration from all sources.
// Priority order (lowest to highest):
// 1. Default values
// 2. Config file (if specified via -c/-config or CONFIG env var)
// 3. .env file (does not override variables already in the environment)
// 4. Environment variables
// 5. Command line flags
func loadConfig(args []string) (*Config, error) {
	cfg := defaultConfig()

	fset := flag.NewFlagSet("server", flag.ContinueOnError)
	fset.StringVar(&cfg.Address, "a", cfg.Address, "HTTP address to listen on")
	fset.IntVar(&cfg.WindowSize, "w", cfg.WindowSize, "Number of samples kept in the latency window")
	fset.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (trace, debug, info, warn, error)")
	fset.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "Human-readable console logs")
	fset.StringVar(&cfg.Key, "k", cfg.Key, "Key for verifying ingest request signatures")
	fset.StringVar(&cfg.TrustedSubnet, "t", cfg.TrustedSubnet, "Trusted subnet in CIDR notation for reading metrics")
	fset.Float64Var(&cfg.IngestRate, "ingest-rate", cfg.IngestRate, "Ingest requests per second per client (0 = unlimited)")
	fset.StringVar(&cfg.ExportFile, "export-file", cfg.ExportFile, "Append exported samples to this file as JSON lines")
	fset.StringVar(&cfg.ExportURL, "export-url", cfg.ExportURL, "POST exported samples to this URL")
	fset.StringVar(&cfg.DSN, "d", cfg.DSN, "PostgreSQL DSN for the sample archive")
	fset.StringVar(&cfg.NatsURL, "nats-url", cfg.NatsURL, "NATS server URL for publishing samples")
	fset.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the sample stream")
	fset.Int64Var(&cfg.RedisMaxLen, "redis-maxlen", cfg.RedisMaxLen, "Approximate maximum length of the Redis stream")
	fset.IntVar(&cfg.ExportWorkers, "export-workers", cfg.ExportWorkers, "Number of export workers")
	fset.IntVar(&cfg.ExportQueue, "export-queue", cfg.ExportQueue, "Export queue size; samples beyond it are dropped")
	fset.StringVar(&cfg.configFile, "c", "", "Path to config file")
	fset.StringVar(&cfg.configFile, "config", "", "Path to config file")
	fset.StringVar(&cfg.envFile, "env-file", configpkg.DefaultEnvFile, "Path to .env file")
	fset.Usage = cleanenv.FUsage(fset.Output(), &cfg, nil, fset.Usage)

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	explicit := configpkg.ExplicitFlags(fset)

	if configFile := configpkg.GetConfigFilePath(cfg.configFile); configFile != "" {
		cfg.configFile = configFile
		var jsonCfg JSONConfig
		if err := configpkg.LoadConfigFile(configFile, &jsonCfg); err != nil {
			return nil, err
		}
		cfg.applyJSON(&jsonCfg)
	}

	if err := configpkg.LoadDotEnv(cfg.envFile); err != nil {
		return nil, err
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	if err := configpkg.ReapplyFlags(fset, explicit); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyJSON applies config from JSON file with lower priority than env/flags.
// Only values still at their default are replaced.
func (c *Config) applyJSON(j *JSONConfig) {
	configpkg.ApplyStringIfDefault(&c.Address, defaultAddress, j.Address)
	configpkg.ApplyIntIfDefault(&c.WindowSize, defaultWindowSize, j.WindowSize)
	configpkg.ApplyStringIfDefault(&c.LogLevel, defaultLogLevel, j.LogLevel)
	configpkg.ApplyStringIfDefault(&c.TrustedSubnet, "", j.TrustedSubnet)
	configpkg.ApplyStringIfDefault(&c.ExportFile, "", j.ExportFile)
	configpkg.ApplyStringIfDefault(&c.ExportURL, "", j.ExportURL)
	configpkg.ApplyStringIfDefault(&c.DSN, "", j.DatabaseDSN)
	configpkg.ApplyStringIfDefault(&c.NatsURL, "", j.NatsURL)
	configpkg.ApplyStringIfDefault(&c.RedisAddr, "", j.RedisAddr)
	configpkg.ApplyIntIfDefault(&c.ExportWorkers, defaultExportWorkers, j.ExportWorkers)
	configpkg.ApplyIntIfDefault(&c.ExportQueue, defaultExportQueue, j.ExportQueue)

	if j.IngestRate > 0 && c.IngestRate == defaultIngestRate {
		c.IngestRate = j.IngestRate
	}
}
