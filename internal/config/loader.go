// Package config provides configuration loading, defaults, and validation for
// the syclop planning service.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "SYCLOP"

// newViper builds a pre-configured Viper instance: YAML file type, SYCLOP_
// env prefix, automatic env binding, and a key replacer that maps "." → "_"
// so that nested keys like "redis.addr" resolve to "SYCLOP_REDIS_ADDR".
// Every key is registered with its default so that environment overrides are
// visible to Unmarshal even without a config file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerDefaults(v)
	return v
}

func registerDefaults(v *viper.Viper) {
	var flat map[string]interface{}
	_ = mapstructure.Decode(Default(), &flat)
	registerMap(v, "", flat)
}

func registerMap(v *viper.Viper, prefix string, m map[string]interface{}) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		var nested map[string]interface{}
		if err := mapstructure.Decode(val, &nested); err == nil && nested != nil {
			registerMap(v, key, nested)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Load reads the YAML file at configPath, merges any SYCLOP_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from SYCLOP_* environment variables,
// with no config file required.
//
//	SYCLOP_<SECTION>_<FIELD>   e.g.  SYCLOP_SERVER_PORT, SYCLOP_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Only the log level is
// meant to be applied at runtime; callers ignore the rest.
//
// If the changed file fails to parse or validate, onChange is not called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is a convenience wrapper around Load that panics on any error.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

// LoadScenario reads a planning scenario from a YAML or JSON file, applies
// scenario defaults and validates it.
func LoadScenario(path string) (*ScenarioConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read scenario %q: %w", path, err)
	}
	sc := &ScenarioConfig{}
	if err := v.Unmarshal(sc); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal scenario: %w", err)
	}
	ApplyScenarioDefaults(sc)
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}
