// Package config loads router settings from defaults, an optional YAML or
// JSON file, and explicitly set command-line flags, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/midirelay"
	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/pkg/adapters/redis"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// MaxPollInterval is the exclusive upper bound of PollInterval.
const MaxPollInterval = time.Second

// Config holds every setting of a router process.
type Config struct {
	Input        string        `mapstructure:"input" yaml:"input"`
	Output       string        `mapstructure:"output" yaml:"output"`
	Fanout       string        `mapstructure:"fanout" yaml:"fanout"`
	Primary      string        `mapstructure:"primary" yaml:"primary"`
	Secondary    string        `mapstructure:"secondary" yaml:"secondary"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`

	// HTTPAddr enables the status server when set.
	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr"`
	// RedisAddr shares output claims with other processes when set.
	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr"`
	NoBanner  bool   `mapstructure:"no_banner" yaml:"no_banner"`

	// ClaimTTL expires Redis claims of a relay that stopped refreshing them.
	ClaimTTL time.Duration `mapstructure:"claim_ttl" yaml:"claim_ttl"`

	PassSysEx       bool `mapstructure:"pass_sysex" yaml:"pass_sysex"`
	PassTiming      bool `mapstructure:"pass_timing" yaml:"pass_timing"`
	PassActiveSense bool `mapstructure:"pass_active_sense" yaml:"pass_active_sense"`
}

// Default returns the settings used when nothing else is given.
func Default() Config {
	return Config{
		Input:        "INTECH",
		Output:       "LOOPMIDI",
		Fanout:       string(domain.FanoutDual),
		Primary:      "track",
		Secondary:    "remote",
		PollInterval: midirelay.DefaultPollInterval,
		LogLevel:     "info",
		ClaimTTL:     redis.DefaultTTL,
	}
}

// Load returns the defaults overlaid with the file at path. An empty path
// returns the defaults; a path that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := cfg.Apply(raw); err != nil {
		return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Apply overlays values keyed by their config names (e.g. "poll_interval").
// Strings are converted where needed; unknown keys are an error.
func (c *Config) Apply(values map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(values)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	mode, err := domain.ParseFanoutMode(c.Fanout)
	if err != nil {
		errs = append(errs, err)
	}
	if mode == domain.FanoutDual {
		if c.Primary == "" || c.Secondary == "" {
			errs = append(errs, errors.New("dual fanout needs both primary and secondary tokens"))
		}
	}
	if c.PollInterval <= 0 || c.PollInterval >= MaxPollInterval {
		errs = append(errs, fmt.Errorf("poll_interval %s out of range (0, %s)", c.PollInterval, MaxPollInterval))
	}
	if c.ClaimTTL <= 0 {
		errs = append(errs, fmt.Errorf("claim_ttl %s must be positive", c.ClaimTTL))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Matching converts the pattern settings. Call Validate first.
func (c Config) Matching() midirelay.Matching {
	mode, _ := domain.ParseFanoutMode(c.Fanout)
	return midirelay.Matching{
		InputPattern:  c.Input,
		OutputPattern: c.Output,
		Fanout:        mode,
		Primary:       c.Primary,
		Secondary:     c.Secondary,
	}
}

// Suppression returns the message classes dropped at each input.
func (c Config) Suppression() domain.Suppression {
	return domain.Suppression{
		TimingClock: !c.PassTiming,
		ActiveSense: !c.PassActiveSense,
		SysEx:       !c.PassSysEx,
	}
}
