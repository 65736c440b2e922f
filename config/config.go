// Package config loads the YAML configuration of the ledgerchain command.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/luca-patrignani/ledgerchain/ledger"
	"github.com/luca-patrignani/ledgerchain/snapshot"
)

// Config is the command configuration.
type Config struct {
	// Logger holds the log level.
	Logger Logger `yaml:"logger"`

	// Ledger holds the settings of newly created blockchains.
	Ledger Ledger `yaml:"ledger"`

	// Snapshot selects how exported blockchains are written.
	Snapshot Snapshot `yaml:"snapshot"`
}

type Logger struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level"`
}

type Ledger struct {
	// Name labels the blockchain in metrics.
	Name string `yaml:"name"`
	// GenesisPayload is stored in the genesis block.
	GenesisPayload string `yaml:"genesis_payload"`
}

type Snapshot struct {
	// Format is json or s2.
	Format string `yaml:"format"`
}

var levels = map[string]pterm.LogLevel{
	"trace": pterm.LogLevelTrace,
	"debug": pterm.LogLevelDebug,
	"info":  pterm.LogLevelInfo,
	"warn":  pterm.LogLevelWarn,
	"error": pterm.LogLevelError,
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Logger:   Logger{Level: "info"},
		Ledger:   Ledger{Name: "default", GenesisPayload: ledger.GenesisPayload},
		Snapshot: Snapshot{Format: string(snapshot.FormatJSON)},
	}
}

// Load reads the YAML file at filename on top of the defaults. An empty
// filename yields the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Validate checks the log level and snapshot format.
func (c Config) Validate() error {
	if _, ok := levels[strings.ToLower(c.Logger.Level)]; !ok {
		return errors.Errorf("unknown log level %q", c.Logger.Level)
	}
	if _, err := snapshot.ParseFormat(c.Snapshot.Format); err != nil {
		return err
	}
	return nil
}

// LogLevel returns the pterm level for the configured log level.
func (c Config) LogLevel() pterm.LogLevel {
	if lvl, ok := levels[strings.ToLower(c.Logger.Level)]; ok {
		return lvl
	}
	return pterm.LogLevelInfo
}

// SnapshotFormat returns the configured snapshot format.
func (c Config) SnapshotFormat() snapshot.Format {
	f, err := snapshot.ParseFormat(c.Snapshot.Format)
	if err != nil {
		return snapshot.FormatJSON
	}
	return f
}
