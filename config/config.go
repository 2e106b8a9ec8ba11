// Package config holds the settings of the wispr command.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the command. A YAML file looks like:
//
//	probe_url: http://www.google.com
//	probe_domain: google
//	timeout: 30s
//	insecure_skip_verify: true
//	user_agent: wispr/1.0
//	state_dir: /home/me
//	log:
//	  format: logfmt
//	  level: info
//	  file: /var/log/wispr.log
//	  max_size_mb: 5
//	  max_backups: 3
type Config struct {
	ProbeURL    string        `yaml:"probe_url" validate:"required,url,startswith=http"`
	ProbeDomain string        `yaml:"probe_domain" validate:"required"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	// InsecureSkipVerify disables TLS certificate checks. Captive portals
	// routinely serve self-signed certificates, so it defaults to true.
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	UserAgent          string `yaml:"user_agent" validate:"required"`
	// StateDir is where the .wispr logoff URL file lives. Empty means the
	// home directory.
	StateDir string `yaml:"state_dir"`

	Log Log `yaml:"log"`
}

// Log configures logging.
type Log struct {
	Format     string `yaml:"format" validate:"oneof=logfmt json"`
	Level      string `yaml:"level" validate:"oneof=debug info warn error none"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		ProbeURL:           "http://www.google.com",
		ProbeDomain:        "google",
		Timeout:            30 * time.Second,
		InsecureSkipVerify: true,
		UserAgent:          "wispr/1.0",
		Log: Log{
			Format:     "logfmt",
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := New()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s failed", path)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s failed", path)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the configuration for values the command cannot use.
func (c *Config) Validate() error {
	return errors.Wrap(validate.Struct(c), "invalid config")
}
