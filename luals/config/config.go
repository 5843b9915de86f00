// Package config loads the luals configuration file.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

// Config is the contents of a luals configuration file.
//
// For example:
//
//	[analysis]
//	strict = false
//	integer = false
//	unused = true
//
//	[log]
//	level = "info"
type Config struct {
	Analysis Analysis `toml:"analysis"`
	Log      Log      `toml:"log"`
}

// Analysis configures how documents are analysed. These are the defaults which settings sent by the client override.
type Analysis struct {
	Strict  bool `toml:"strict"`
	Integer bool `toml:"integer"`
	Unused  bool `toml:"unused"`
}

// Log configures the process log.
type Log struct {
	Level string `toml:"level"`
}

// ZapLevel returns the level as a [zapcore.Level].
func (l Log) ZapLevel() (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// Default returns the configuration used when no file is provided. Keys missing from a file keep these values.
func Default() Config {
	return Config{
		Analysis: Analysis{Unused: true},
		Log:      Log{Level: "info"},
	}
}

// Load reads the configuration file at path. If path is empty, the default configuration is returned.
// Unknown keys are reported as an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return check(path, cfg, md)
}

// Parse is like [Load] but reads the configuration from a string.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return check("config", cfg, md)
}

func check(name string, cfg Config, md toml.MetaData) (Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		slices.Sort(keys)
		return Config{}, fmt.Errorf("loading config from %s: unknown keys: %s", name, strings.Join(keys, ", "))
	}
	if _, err := cfg.Log.ZapLevel(); err != nil {
		return Config{}, fmt.Errorf("loading config from %s: %w", name, err)
	}
	return cfg, nil
}
