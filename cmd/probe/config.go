package main

import (
	"errors"
	"flag"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	configpkg "github.com/idudko/storefront-latency/internal/config"
)

const (
	defaultAddress        = "localhost:8080"
	defaultPollInterval   = 2
	defaultReportInterval = 10
	defaultRateLimit      = 1
	defaultTimeout        = 10
	defaultLogLevel       = "info"
)

// JSONConfig represents configuration from JSON file
type JSONConfig struct {
	Address        string   `json:"address"`
	Targets        []string `json:"targets"`
	PollInterval   string   `json:"poll_interval"`
	ReportInterval string   `json:"report_interval"`
	RateLimit      int      `json:"rate_limit"`
	Timeout        string   `json:"timeout"`
	LogLevel       string   `json:"log_level"`
}

// Config represents the full configuration with all sources
type Config struct {
	Address        string `env:"ADDRESS"`
	Targets        string `env:"TARGETS"`
	PollInterval   int    `env:"POLL_INTERVAL"`
	ReportInterval int    `env:"REPORT_INTERVAL"`
	UseBatch       bool   `env:"BATCH"`
	Key            string `env:"KEY"`
	RateLimit      int    `env:"RATE_LIMIT"`
	Timeout        int    `env:"PROBE_TIMEOUT"`
	LogLevel       string `env:"LOG_LEVEL"`

	configFile string
	envFile    string
}

// TargetList splits the comma-separated target URLs.
func (c *Config) TargetList() []string {
	var targets []string
	for _, t := range strings.Split(c.Targets, ",") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}
	return targets
}

// loadConfig builds the probe configuration from all sources.
// Priority order (lowest to highest):
// 1. Default values
// 2. JSON config file (if provided via -c or -config or CONFIG env var)
// 3. .env file
// 4. Environment variables
// 5. Command line flags
func loadConfig(args []string) (*Config, error) {
	cfg := Config{
		Address:        defaultAddress,
		PollInterval:   defaultPollInterval,
		ReportInterval: defaultReportInterval,
		UseBatch:       true,
		RateLimit:      defaultRateLimit,
		Timeout:        defaultTimeout,
		LogLevel:       defaultLogLevel,
	}

	fset := flag.NewFlagSet("probe", flag.ContinueOnError)
	fset.StringVar(&cfg.Address, "a", cfg.Address, "Latency server address")
	fset.StringVar(&cfg.Targets, "targets", cfg.Targets, "Comma-separated storefront URLs to probe")
	fset.IntVar(&cfg.PollInterval, "p", cfg.PollInterval, "Probe interval in seconds")
	fset.IntVar(&cfg.ReportInterval, "r", cfg.ReportInterval, "Report interval in seconds")
	fset.BoolVar(&cfg.UseBatch, "b", cfg.UseBatch, "Use batch reporting")
	fset.StringVar(&cfg.Key, "k", cfg.Key, "Key for signing requests")
	fset.IntVar(&cfg.RateLimit, "l", cfg.RateLimit, "Rate limit for concurrent requests")
	fset.IntVar(&cfg.Timeout, "timeout", cfg.Timeout, "Probe request timeout in seconds")
	fset.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
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

	if len(cfg.TargetList()) == 0 {
		return nil, errors.New("at least one probe target is required (-targets or TARGETS)")
	}
	if cfg.PollInterval <= 0 || cfg.ReportInterval <= 0 {
		return nil, errors.New("poll and report intervals must be positive")
	}
	return &cfg, nil
}

// applyJSON applies config from JSON file with lower priority than env/flags.
// Only values still at their default are replaced.
func (c *Config) applyJSON(j *JSONConfig) {
	configpkg.ApplyStringIfDefault(&c.Address, defaultAddress, j.Address)
	configpkg.ApplyStringIfDefault(&c.Targets, "", strings.Join(j.Targets, ","))
	configpkg.ApplyDurationIfDefault(&c.PollInterval, defaultPollInterval, j.PollInterval)
	configpkg.ApplyDurationIfDefault(&c.ReportInterval, defaultReportInterval, j.ReportInterval)
	configpkg.ApplyIntIfDefault(&c.RateLimit, defaultRateLimit, j.RateLimit)
	configpkg.ApplyDurationIfDefault(&c.Timeout, defaultTimeout, j.Timeout)
	configpkg.ApplyStringIfDefault(&c.LogLevel, defaultLogLevel, j.LogLevel)
}
