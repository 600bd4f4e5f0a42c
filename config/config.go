// Package config loads the bridge configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// Defaults
const (
	DefaultDB        = "draw.db"
	DefaultListen    = ":8080"
	DefaultChunkSize = 512
	DefaultLogLevel  = "info"
)

// Config holds the bridge settings read from a YAML file.
type Config struct {
	DB             string `yaml:"db"`
	Listen         string `yaml:"listen"`
	StrictOrdering bool   `yaml:"strict_ordering"`
	ChunkSize      int    `yaml:"chunk_size"`
	LogLevel       string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DB:        DefaultDB,
		Listen:    DefaultListen,
		ChunkSize: DefaultChunkSize,
		LogLevel:  DefaultLogLevel,
	}
}

// Parse parses YAML configuration, filling in defaults for anything left
// out.
func Parse(b []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads and parses the configuration file.
func Load(file string) (Config, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return Config{}, err
	}
	c, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", file, err)
	}
	return c, nil
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("db must be set")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(c.LogLevel)
}
