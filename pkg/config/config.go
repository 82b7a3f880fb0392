// Package config handles jclass.toml tool configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "jclass.toml"

// Config represents a jclass.toml file.
type Config struct {
	Classpath Classpath `toml:"classpath"`
	Parse     Parse     `toml:"parse"`
	Log       Log       `toml:"log"`
	Output    Output    `toml:"output"`

	// Dir is the directory containing the jclass.toml file (set at load time).
	Dir string `toml:"-"`
}

// Classpath lists where classes are looked up.
type Classpath struct {
	Entries []string `toml:"entries"`
	Jmod    string   `toml:"jmod"`
}

// Parse holds classfile parser switches.
type Parse struct {
	AllowDuplicateAttributes bool `toml:"allow_duplicate_attributes"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Output configures report encoding.
type Output struct {
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{Output: Output{Format: "json"}}
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	// Defaults
	if c.Output.Format == "" {
		c.Output.Format = "json"
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a jclass.toml file, then
// loads and returns it. Returns Default() if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			c := Default()
			c.Dir, _ = filepath.Abs(startDir)
			return c, nil
		}
		dir = parent
	}
}

// Validate checks values that toml decoding cannot.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "json", "cbor":
	default:
		return fmt.Errorf("output.format %q: want json or cbor", c.Output.Format)
	}
	if c.Log.Verbosity < -4 {
		return fmt.Errorf("log.verbosity %d is below -4", c.Log.Verbosity)
	}
	return nil
}

// EntryPaths returns the classpath entries resolved against Dir.
func (c *Config) EntryPaths() []string {
	paths := make([]string, 0, len(c.Classpath.Entries))
	for _, e := range c.Classpath.Entries {
		if !filepath.IsAbs(e) {
			e = filepath.Join(c.Dir, e)
		}
		paths = append(paths, e)
	}
	return paths
}

// JmodPath returns the configured jmod resolved against Dir, or "" when
// none is configured.
func (c *Config) JmodPath() string {
	p := c.Classpath.Jmod
	if p != "" && !filepath.IsAbs(p) {
		p = filepath.Join(c.Dir, p)
	}
	return p
}
