package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for a feesched run. It is passed
// explicitly to every component at construction; there is no ambient
// path/state shared through package globals.
type Config struct {
	DSN        string
	FilePath   string // extract to load (load/plan)
	OutPath    string // usage report destination (export)
	ListenAddr string `yaml:"listen_addr"`
	LogFormat  string `yaml:"log_format"` // "text" or "json"
	Force      bool   // re-load even if the extract SHA was already published
	KeepBuild  bool   // keep the build table after a failed run for inspection
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	LogFormat  string `yaml:"log_format"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// flagSet reports whether a named flag was set on the command line
// (cobra's Flags().Changed); a file value is applied only when its flag was
// not, so explicit flags always win over the file, and the file wins over
// flag defaults.
func (c *Config) LoadFromFile(path string, flagSet func(name string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if yc.ListenAddr != "" && !flagSet("listen") {
		c.ListenAddr = yc.ListenAddr
	}
	if yc.LogFormat != "" && !flagSet("log-format") {
		c.LogFormat = yc.LogFormat
	}
	return c.validateLogFormat()
}

func (c *Config) validateLogFormat() error {
	switch c.LogFormat {
	case "", "text", "json":
		return nil
	}
	return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
}

// Validate checks required fields for file-reading commands.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}

// ValidateWithDSN checks both file and DSN fields.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}
