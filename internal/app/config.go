package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/omarthenmalai/SubwayScheduler/internal/appconf"
)

// Config holds all the configuration settings for the Application. Values
// come from an optional YAML file with command-line flags layered on top.
type Config struct {
	Port          int      `yaml:"port" validate:"gt=0"`
	Env           string   `yaml:"env"`
	DBPath        string   `yaml:"dbPath" validate:"required"`
	APIKeys       []string `yaml:"apiKeys"`
	GTFSSource    string   `yaml:"gtfsSource"`
	MaxCandidates int      `yaml:"maxCandidates" validate:"gte=0"`
	Verbose       bool     `yaml:"verbose"`
}

// DefaultConfig returns the settings used when neither file nor flags
// override them.
func DefaultConfig() Config {
	return Config{
		Port:          4000,
		Env:           "development",
		DBPath:        "subway.db",
		APIKeys:       []string{"test"},
		MaxCandidates: 100,
	}
}

// LoadConfig reads the YAML config file at path into a Config. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Environment maps the config's env string onto the environment enum.
func (c Config) Environment() appconf.Environment {
	return appconf.EnvFlagToEnvironment(c.Env)
}

// SplitAPIKeys parses a comma-separated flag value into trimmed keys.
func SplitAPIKeys(flagValue string) []string {
	if flagValue == "" {
		return nil
	}
	parts := strings.Split(flagValue, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
