package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	SchemaRoot    string `yaml:"schema_root"`
	Workers       int    `yaml:"workers"`
	LogLevel      string `yaml:"log_level"`
	LogPretty     bool   `yaml:"log_pretty"`
	Listen        string `yaml:"listen"`
	UploadLimitMB int    `yaml:"upload_limit_mb"`
}

func Default() *Config {
	return &Config{
		SchemaRoot:    "scripts",
		Workers:       runtime.NumCPU(),
		LogLevel:      "info",
		LogPretty:     true,
		Listen:        ":8000",
		UploadLimitMB: 64,
	}
}

// Load reads a YAML config over the defaults. An empty path returns defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read config %q", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse config %q", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid config %q", path)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.SchemaRoot == "" {
		return errors.Errorf("schema_root is empty")
	}
	if c.UploadLimitMB < 1 {
		return errors.Errorf("upload_limit_mb must be positive, got %d", c.UploadLimitMB)
	}
	return nil
}
