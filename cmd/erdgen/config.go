package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/erdlab/erdgen/internal/xerr"
)

// Config represents the erdgen.yaml configuration file.
type Config struct {
	ProjectName string `yaml:"project_name"`
	ModelFile   string `yaml:"model_file"`
	OutFile     string `yaml:"out_file"`
	ListenAddr  string `yaml:"listen_addr"`
}

// loadConfig loads configuration from file and env vars.
// Precedence: CLI flags > env vars > config file > defaults.
// Flags are applied by the commands themselves after this returns.
func loadConfig() (*Config, error) {
	cfg := &Config{
		ModelFile:  "model.json",
		OutFile:    "schema.sql",
		ListenAddr: ":8080",
	}

	// Load config file if it exists
	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, xerr.Wrapf(xerr.ErrConfig, err, "failed to parse %s", configFile)
		}
		// Handle env var interpolation in values
		cfg.ProjectName = expandEnvVars(cfg.ProjectName)
		cfg.ModelFile = expandEnvVars(cfg.ModelFile)
		cfg.OutFile = expandEnvVars(cfg.OutFile)
		cfg.ListenAddr = expandEnvVars(cfg.ListenAddr)
	}

	// Override with env vars
	if v := os.Getenv("ERDGEN_PROJECT"); v != "" {
		cfg.ProjectName = v
	}
	if v := os.Getenv("ERDGEN_MODEL"); v != "" {
		cfg.ModelFile = v
	}
	if v := os.Getenv("ERDGEN_OUT"); v != "" {
		cfg.OutFile = v
	}
	if v := os.Getenv("ERDGEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}

	return cfg, nil
}

// expandEnvVars expands ${VAR} patterns in a string.
func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}
