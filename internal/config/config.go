// Package config loads songmeta.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/songmeta/internal/logging"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// FileName is the config file looked up in a directory.
const FileName = "songmeta.yaml"

// Environment overrides.
const (
	EnvDatabase = "SONGMETA_DB"
	EnvLogLevel = "SONGMETA_LOG_LEVEL"
)

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	// DryRun rolls back every import instead of committing it.
	DryRun bool `yaml:"dry_run"`
	// Declarations is a directory of extra CUE entity declarations.
	Declarations string `yaml:"declarations,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "songmeta.db"},
		Log:      LogConfig{Level: "info", Format: logging.FormatConsole},
	}
}

// Load reads the config at path. A directory is searched for FileName.
// Unset keys keep their Default values; relative paths are resolved
// against the file's directory.
func Load(path string) (*Config, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg.Database.Path = resolve(dir, cfg.Database.Path)
	cfg.Declarations = resolve(dir, cfg.Declarations)
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// ApplyEnv applies the SONGMETA_* overrides found through lookup.
// Pass os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDatabase); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := logging.CheckFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	if c.Declarations != "" {
		info, err := os.Stat(c.Declarations)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("declarations: %w", err))
		case !info.IsDir():
			errs = append(errs, fmt.Errorf("declarations: %s is not a directory", c.Declarations))
		}
	}
	return errors.Join(errs...)
}

// Resolve loads the config at path, falling back to Default when no file
// exists and the caller did not name one explicitly. Environment overrides
// are applied and the result validated.
func Resolve(path string, explicit bool, lookup func(string) (string, bool)) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) && !explicit {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(lookup)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
