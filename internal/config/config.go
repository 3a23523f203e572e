package config

import (
	_ "embed"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/brizzbuzz/cfgscrub/internal/errors"
	"github.com/brizzbuzz/cfgscrub/internal/logging"
	"github.com/brizzbuzz/cfgscrub/internal/validation"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Target names a JSON object by dotted path and the fields to clear inside it.
type Target struct {
	Container string   `koanf:"container"`
	Fields    []string `koanf:"fields"`
}

// Config represents the complete scrubber configuration
type Config struct {
	TargetFile  string         `koanf:"target_file"`
	Encoding    string         `koanf:"encoding"`
	Indent      string         `koanf:"indent"`
	Placeholder string         `koanf:"placeholder"`
	Targets     []Target       `koanf:"targets"`
	Log         logging.Config `koanf:"log"`
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	return Load(nil)
}

// Load layers overrides (YAML) on top of the built-in defaults. Lists such
// as targets replace the default list rather than merging with it.
func Load(overrides []byte) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, errors.ConfigError("Loading built-in configuration", "Invalid defaults document", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(rawbytes.Provider(overrides), yaml.Parser()); err != nil {
			return nil, errors.ConfigError("Loading configuration overrides", "Invalid YAML in overrides", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.ConfigError("Decoding configuration", "Configuration does not match the expected shape", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration before any file is touched.
func (c *Config) Validate() error {
	targets := make([]validation.TargetData, 0, len(c.Targets))
	for _, t := range c.Targets {
		targets = append(targets, validation.TargetData{
			Container: t.Container,
			Fields:    t.Fields,
		})
	}

	v := validation.NewValidator()
	if err := v.ValidateConfigStruct(validation.ConfigData{
		TargetFile: c.TargetFile,
		Encoding:   c.Encoding,
		Indent:     c.Indent,
		Targets:    targets,
	}); err != nil {
		return err
	}

	if err := c.Log.Validate(); err != nil {
		return errors.ConfigError("Configuration validation", "Invalid log settings", err)
	}

	return nil
}
