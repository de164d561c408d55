package commands

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"bankrot-check/internal/components/chrono"
	"bankrot-check/internal/components/configutil"
	"bankrot-check/internal/registry"
	"bankrot-check/internal/store"

	"github.com/spf13/pflag"
)

const (
	defaultInput     = "excel/input/debtors_list.xlsx"
	defaultOutputDir = "excel/output"
)

type Config struct {
	Endpoint       string  `json:"endpoint"`
	Proxy          string  `json:"proxy"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	RateLimit      float64 `json:"rate_limit"`
	MaxAttempts    int     `json:"max_attempts"`
	DelayMinMs     int     `json:"delay_min_ms"`
	DelayMaxMs     int     `json:"delay_max_ms"`

	Input     string `json:"input"`
	OutputDir string `json:"output_dir"`
	Output    string `json:"output"`
	Store     string `json:"store"`
	Workers   int    `json:"workers"`
	DumpDir   string `json:"dump_dir"`
}

// loadConfig reads `path`, a missing file leaves every value at its default.
func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.Input == "" {
		c.Input = defaultInput
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.Store == "" {
		c.Store = string(store.KindXLSX)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

// applyFlags overrides config values with the flags that were set
// explicitly on the command line.
func (c *Config) applyFlags(flags *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func()) {
		if err == nil && flags.Changed(name) {
			apply()
		}
	}
	set("input", func() { c.Input, err = flags.GetString("input") })
	set("proxy", func() { c.Proxy, err = flags.GetString("proxy") })
	set("output", func() { c.Output, err = flags.GetString("output") })
	set("output-dir", func() { c.OutputDir, err = flags.GetString("output-dir") })
	set("store", func() { c.Store, err = flags.GetString("store") })
	set("workers", func() { c.Workers, err = flags.GetInt("workers") })
	set("dump-dir", func() { c.DumpDir, err = flags.GetString("dump-dir") })
	set("rate-limit", func() { c.RateLimit, err = flags.GetFloat64("rate-limit") })
	set("max-attempts", func() { c.MaxAttempts, err = flags.GetInt("max-attempts") })
	return err
}

func (c Config) sessionOptions() registry.Options {
	return registry.Options{
		Endpoint:    c.Endpoint,
		Proxy:       c.Proxy,
		Timeout:     time.Duration(c.TimeoutSeconds) * time.Second,
		RateLimit:   c.RateLimit,
		MaxAttempts: c.MaxAttempts,
		DelayMin:    time.Duration(c.DelayMinMs) * time.Millisecond,
		DelayMax:    time.Duration(c.DelayMaxMs) * time.Millisecond,
	}
}

// outputLocation returns the explicit output if one is configured, or a
// fresh timestamped location inside the output directory.
func (c Config) outputLocation(clock chrono.API) string {
	if c.Output != "" {
		return c.Output
	}
	name := store.FileName(clock.Now())
	if store.Kind(c.Store) == store.KindSQLite {
		name = name[:len(name)-len(filepath.Ext(name))] + ".db"
	}
	return filepath.Join(c.OutputDir, name)
}

func isURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && u.Scheme != "" && u.Host != ""
}
