package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sim "github.com/bakeline/bakeline/sim"
)

// envPrefix is prepended to each field's envconfig tag, e.g. BAKELINE_SPEED.
const envPrefix = "BAKELINE"

// loadConfigFile overlays the file at path onto cfg. Fields missing from the
// file keep their current values. Unknown keys are errors so typos do not
// silently fall back to defaults.
func loadConfigFile(path string, cfg *sim.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return fmt.Errorf("parse YAML config %s: %w", path, err)
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil {
			return fmt.Errorf("parse TOML config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension %q (want .yaml, .yml or .toml)", path, filepath.Ext(path))
	}
	return nil
}

// applyEnv overlays BAKELINE_* environment variables onto cfg.
func applyEnv(cfg *sim.Config) error {
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("read %s_* environment: %w", envPrefix, err)
	}
	return nil
}

// applyFlags overlays only the flags the user actually set, so file and
// environment values are not clobbered by flag defaults.
func applyFlags(cmd *cobra.Command, cfg *sim.Config) {
	flags := cmd.Flags()
	if flags.Changed("mix") {
		cfg.MixDuration = mixDuration
	}
	if flags.Changed("bake") {
		cfg.BakeDuration = bakeDuration
	}
	if flags.Changed("pack") {
		cfg.PackDuration = packDuration
	}
	if flags.Changed("transit") {
		cfg.TransitDelay = transitDelay
	}
	if flags.Changed("batches") {
		cfg.BatchSizes = append([]int(nil), batchSizes...)
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("base-interval-ms") {
		cfg.BaseIntervalMs = baseIntervalMs
	}
}

// resolveConfig merges defaults, config file, environment and flags, in that
// order, and validates the result once.
func resolveConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		if err := loadConfigFile(configPath, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
