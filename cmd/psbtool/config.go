package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the psbtool configuration file (~/.config/psbtool/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	OutputDir string `yaml:"output_dir"`
	Workers   *int64 `yaml:"workers"`
	TMFormat  string `yaml:"tm_format"`

	// Export
	Compress            string `yaml:"compress"`
	CompressionLevel    *int64 `yaml:"compression_level"`
	ForceMaxOffsetWidth *bool  `yaml:"force_max_offset_width"`
	AlignResources      *bool  `yaml:"align_resources"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxBodyBytes  *int64 `yaml:"max_body_bytes"`
}

func configPath() string {
	if p := os.Getenv(envConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "psbtool", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	return parseConfig(data)
}

func parseConfig(data []byte) Config {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyBatchConfig applies config file defaults to batch flags that were
// not explicitly set.
func applyBatchConfig(c *cli.Command, cfg Config) {
	if cfg.OutputDir != "" && !c.IsSet("out-dir") {
		outDir = cfg.OutputDir
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
	if cfg.TMFormat != "" && !c.IsSet("tm-format") {
		tmFormat = cfg.TMFormat
	}
}

func applyCodecConfig(c *cli.Command, cfg Config) {
	if cfg.Compress != "" && !c.IsSet("compress") {
		compress = cfg.Compress
	}
	if cfg.CompressionLevel != nil && !c.IsSet("compression-level") {
		compressionLevel = *cfg.CompressionLevel
	}
	if cfg.ForceMaxOffsetWidth != nil && !c.IsSet("force-max-offset-width") {
		forceMaxWidth = *cfg.ForceMaxOffsetWidth
	}
	if cfg.AlignResources != nil && !c.IsSet("align-resources") {
		alignResources = *cfg.AlignResources
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxBody *int64) {
	applyCodecConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxBodyBytes != nil && !c.IsSet("max-body") {
		*maxBody = *cfg.MaxBodyBytes
	}
}
