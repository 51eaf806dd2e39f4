// Package config provides Viper-based configuration loading for the FAFO server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CombatConfig holds combat timing and tuning settings.
type CombatConfig struct {
	// Roundtime is the action lock applied after every attack attempt.
	Roundtime time.Duration `mapstructure:"roundtime"`
	// TickInterval is the cadence of the shared timer and effect sweeps.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// CorpseDecay is how long a slain NPC's corpse lingers before removal.
	CorpseDecay time.Duration `mapstructure:"corpse_decay"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig holds paths to game content directories.
type ContentConfig struct {
	// NPCDir is the directory of hostile NPC template YAML files.
	NPCDir string `mapstructure:"npc_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Combat  CombatConfig  `mapstructure:"combat"`
	Logging LoggingConfig `mapstructure:"logging"`
	Content ContentConfig `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(cc CombatConfig) error {
	var errs []string
	if cc.Roundtime <= 0 {
		errs = append(errs, fmt.Sprintf("combat.roundtime must be > 0, got %s", cc.Roundtime))
	}
	if cc.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("combat.tick_interval must be > 0, got %s", cc.TickInterval))
	}
	if cc.CorpseDecay < 0 {
		errs = append(errs, fmt.Sprintf("combat.corpse_decay must be >= 0, got %s", cc.CorpseDecay))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with FAFO_ prefix
	v.SetEnvPrefix("FAFO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshal of defaults cannot fail: the schema above matches Config.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("combat.roundtime", "5s")
	v.SetDefault("combat.tick_interval", "1s")
	v.SetDefault("combat.corpse_decay", "1m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("content.npc_dir", "content/npcs")
}
