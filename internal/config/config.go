// Package config loads the optional vimdoc tool configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = ".vimdoc.yaml"

type Config struct {
	// Verbosity is the log level: 0 warnings, 1 info, 2 debug.
	Verbosity int `yaml:"verbosity"`
	// DocDir overrides the output directory, relative to the plugin
	// directory. Defaults to "doc".
	DocDir string `yaml:"docdir"`
}

func Default() *Config {
	return &Config{DocDir: "doc"}
}

// Load reads the YAML config at path, falling back to defaults when the
// default config file is absent. A missing file is only an error when
// the path was given explicitly.
func Load(fsys afero.Fs, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.DocDir == "" {
		cfg.DocDir = "doc"
	}

	return applyEnv(cfg), nil
}

// applyEnv overrides config fields from the environment.
func applyEnv(cfg *Config) *Config {
	if docdir := os.Getenv("VIMDOC_DOCDIR"); docdir != "" {
		cfg.DocDir = docdir
	}
	if verbosity := os.Getenv("VIMDOC_VERBOSITY"); verbosity != "" {
		if v, err := strconv.Atoi(verbosity); err == nil {
			cfg.Verbosity = v
		}
	}
	return cfg
}
