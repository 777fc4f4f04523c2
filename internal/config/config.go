// Package config loads the project file (langgraph.json) that tells the
// local server which graphs to register, and the .env file it points at.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the project file looked up in the working directory.
const DefaultFile = "langgraph.json"

// DefaultEnvFile is the dotenv file loaded when no project file exists.
const DefaultEnvFile = ".env"

// DefaultMaxResults is the search result cap used when the file sets none.
const DefaultMaxResults = 2

// Config is the decoded project file. JSON is a subset of YAML, so the
// same decoder reads langgraph.json and langgraph.yaml.
type Config struct {
	// Graphs maps an assistant id to a graph reference, for example
	// "agent" or "./graph.py:graph".
	Graphs map[string]string `yaml:"graphs"`

	// Env is the path of a dotenv file, relative to the project file.
	Env string `yaml:"env"`

	// Model is a "provider:model" string; empty means the agent default.
	Model string `yaml:"model"`

	MaxResults int `yaml:"max_results"`

	// Dir is the directory the file was read from.
	Dir string `yaml:"-"`
}

// Default returns the configuration used when no project file exists: a
// single "agent" graph and the .env file of the working directory, if any.
func Default() *Config {
	return &Config{
		Graphs:     map[string]string{"agent": "agent"},
		Env:        DefaultEnvFile,
		MaxResults: DefaultMaxResults,
		Dir:        ".",
	}
}

// Load reads the project file at path. An empty path means DefaultFile in
// the working directory, whose absence yields Default(); an explicit path
// must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes a project file and fills in defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(cfg.Graphs) == 0 {
		cfg.Graphs = Default().Graphs
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	return cfg, cfg.Validate()
}

// Validate checks the fields Parse cannot default.
func (c *Config) Validate() error {
	var errs []error
	for id, ref := range c.Graphs {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, errors.New("graph with empty assistant id"))
		}
		if strings.TrimSpace(ref) == "" {
			errs = append(errs, fmt.Errorf("graph %q has an empty reference", id))
		}
	}
	if c.MaxResults < 0 {
		errs = append(errs, fmt.Errorf("max_results must be positive, got %d", c.MaxResults))
	}
	return errors.Join(errs...)
}

// GraphName extracts the graph name from a reference: the part after the
// last ":" for "file:name" references, the reference itself otherwise.
func GraphName(ref string) string {
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// LoadEnv loads the dotenv file named by Env into the process environment.
// Variables already set are kept. A missing file is not an error.
func (c *Config) LoadEnv() error {
	if c.Env == "" {
		return nil
	}
	path := c.Env
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.Dir, path)
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env %s: %w", path, err)
	}
	return nil
}
