// Package config holds the helpers shared by the server and probe
// configuration loaders.
//
// Both binaries resolve settings in the same order, lowest priority first:
// defaults, JSON config file, .env file, environment variables, command-line
// flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is the dotenv file read when no other path is given.
const DefaultEnvFile = ".env"

// LoadConfigFile loads configuration from JSON file.
//
// Example:
//
//	var cfg JSONConfig
//	if err := config.LoadConfigFile("config.json", &cfg); err != nil {
//	    log.Fatal().Err(err).Send()
//	}
func LoadConfigFile(path string, cfg any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadDotEnv copies variables from a dotenv file into the process
// environment. Variables that are already set are left alone, so the real
// environment wins over the file. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ParseDuration parses duration string with optional 's' suffix.
//
// The function accepts strings like "10", "10s" and returns the number of seconds.
//
// Example:
//
//	duration, err := config.ParseDuration("10s")
func ParseDuration(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty duration")
	}

	s = strings.TrimSuffix(s, "s")

	var duration int
	if _, err := fmt.Sscanf(s, "%d", &duration); err != nil {
		return 0, fmt.Errorf("invalid duration format: %w", err)
	}

	if duration <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %d", duration)
	}

	return duration, nil
}

// GetConfigFilePath returns the path to the configuration file from the flag or CONFIG environment variable.
func GetConfigFilePath(configFlag string) string {
	if configFlag != "" {
		return configFlag
	}
	return os.Getenv("CONFIG")
}

// ApplyStringIfDefault applies string value from JSON config only if current value equals default.
//
// Example:
//
//	ApplyStringIfDefault(&cfg.Address, "localhost:8080", jsonCfg.Address)
func ApplyStringIfDefault(current *string, defaultValue, jsonValue string) {
	if jsonValue != "" && *current == defaultValue {
		*current = jsonValue
	}
}

// ApplyIntIfDefault applies a positive int from JSON config only if current value equals default.
func ApplyIntIfDefault(current *int, defaultValue, jsonValue int) {
	if jsonValue > 0 && *current == defaultValue {
		*current = jsonValue
	}
}

// ApplyDurationIfDefault parses and applies duration from JSON config only if current value equals default.
//
// Example:
//
//	ApplyDurationIfDefault(&cfg.PollInterval, 2, jsonCfg.PollInterval)
func ApplyDurationIfDefault(current *int, defaultValue int, jsonValue string) {
	if jsonValue != "" && *current == defaultValue {
		if duration, err := ParseDuration(jsonValue); err == nil {
			*current = duration
		}
	}
}

// ApplyBoolIfDefault applies boolean value from JSON config only if current value is false and JSON value is true.
func ApplyBoolIfDefault(current *bool, jsonValue bool) {
	if jsonValue && !*current {
		*current = jsonValue
	}
}

// ExplicitFlags records the flags that were set on the command line, with
// their values, so they can be re-applied after lower-priority sources have
// been read into the same struct.
func ExplicitFlags(fset *flag.FlagSet) map[string]string {
	set := make(map[string]string)
	fset.Visit(func(f *flag.Flag) {
		set[f.Name] = f.Value.String()
	})
	return set
}

// ReapplyFlags restores the values captured by ExplicitFlags.
func ReapplyFlags(fset *flag.FlagSet, explicit map[string]string) error {
	for name, value := range explicit {
		if err := fset.Set(name, value); err != nil {
			return fmt.Errorf("flag -%s: %w", name, err)
		}
	}
	return nil
}
