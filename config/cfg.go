package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"stylekit/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// EngineConfig holds cascade engine settings and the environment assumed
	// when none is given explicitly.
	EngineConfig struct {
		BaseFontSize      float64 `yaml:"base_font_size" validate:"gt=0"`
		RejectEmpty       bool    `yaml:"reject_empty"`
		CacheStyles       bool    `yaml:"cache_styles"`
		DefaultIdiom      string  `yaml:"default_idiom" validate:"oneof=unspecified phone pad tv car"`
		DefaultHorizontal string  `yaml:"default_horizontal" validate:"oneof=unspecified compact regular"`
		DefaultVertical   string  `yaml:"default_vertical" validate:"oneof=unspecified compact regular"`
		DefaultScreen     string  `yaml:"default_screen" validate:"required"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Engine    EngineConfig   `yaml:"engine"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// Environment returns default environment described by configuration.
func (conf *EngineConfig) Environment() (common.Environment, error) {
	var (
		env common.Environment
		err error
	)
	if env.Idiom, err = common.ParseIdiom(conf.DefaultIdiom); err != nil {
		return env, fmt.Errorf("bad default idiom: %w", err)
	}
	if env.Horizontal, err = common.ParseSizeClass(conf.DefaultHorizontal); err != nil {
		return env, fmt.Errorf("bad default horizontal size class: %w", err)
	}
	if env.Vertical, err = common.ParseSizeClass(conf.DefaultVertical); err != nil {
		return env, fmt.Errorf("bad default vertical size class: %w", err)
	}
	if env.Bounds, err = common.ParseSize(conf.DefaultScreen); err != nil {
		return env, fmt.Errorf("bad default screen: %w", err)
	}
	return env, nil
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("configuration sanitizing failed: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		if _, err := cfg.Engine.Environment(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
