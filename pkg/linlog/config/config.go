package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/linlog/pkg/linlog/internalerr"
	"github.com/cognicore/linlog/pkg/linlog/resolve"
)

// DefaultMaxRules caps the clause table when max_rules is unset
const DefaultMaxRules = 4096

// Trace store kinds
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the runtime configuration file
type Config struct {
	Engine Engine `yaml:"engine"`
	Trace  Trace  `yaml:"trace"`
}

// Engine holds the resolution bounds
type Engine struct {
	MaxDepth     int `yaml:"max_depth"`
	MaxBindings  int `yaml:"max_bindings"`
	MaxSolutions int `yaml:"max_solutions"`
	MaxRules     int `yaml:"max_rules"`
}

// Trace controls resolution tracing
type Trace struct {
	Enabled bool   `yaml:"enabled"`
	Store   string `yaml:"store"`
	DSN     string `yaml:"dsn"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Engine: Engine{
			MaxDepth:     resolve.DefaultMaxDepth,
			MaxBindings:  resolve.DefaultMaxBindings,
			MaxSolutions: resolve.DefaultMaxSolutions,
			MaxRules:     DefaultMaxRules,
		},
		Trace: Trace{Store: StoreMemory},
	}
}

// LoadConfig loads and validates a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Normalize replaces zero values with defaults and rejects invalid ones
func (c *Config) Normalize() error {
	def := Default()

	fields := []struct {
		name string
		v    *int
		def  int
	}{
		{"max_depth", &c.Engine.MaxDepth, def.Engine.MaxDepth},
		{"max_bindings", &c.Engine.MaxBindings, def.Engine.MaxBindings},
		{"max_solutions", &c.Engine.MaxSolutions, def.Engine.MaxSolutions},
		{"max_rules", &c.Engine.MaxRules, def.Engine.MaxRules},
	}
	for _, f := range fields {
		switch {
		case *f.v < 0:
			return fmt.Errorf("engine.%s = %d: %w", f.name, *f.v, internalerr.ErrInvalidConfig)
		case *f.v == 0:
			*f.v = f.def
		}
	}

	switch c.Trace.Store {
	case "":
		c.Trace.Store = StoreMemory
	case StoreMemory:
	case StoreSQLite:
		if c.Trace.DSN == "" {
			return fmt.Errorf("trace.store sqlite needs trace.dsn: %w", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("trace.store %q: %w", c.Trace.Store, internalerr.ErrInvalidConfig)
	}
	return nil
}

// ResolveOptions converts the engine section for resolve.New
func (e Engine) ResolveOptions() resolve.Options {
	return resolve.Options{
		MaxDepth:     e.MaxDepth,
		MaxBindings:  e.MaxBindings,
		MaxSolutions: e.MaxSolutions,
	}
}

// Program is a knowledge base written as YAML. Facts, rule parts and type
// names use the textual term syntax.
type Program struct {
	Linear      []string            `yaml:"linear"`
	Exponential []string            `yaml:"exponential"`
	Persistent  []string            `yaml:"persistent"`
	Rules       []Rule              `yaml:"rules"`
	Types       map[string]string   `yaml:"types"`
	Unions      map[string][]string `yaml:"unions"`
}

// Rule is one clause of a Program
type Rule struct {
	Head       string   `yaml:"head"`
	Body       []string `yaml:"body"`
	Production string   `yaml:"production,omitempty"`
}

// LoadProgram loads a program file
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var prog Program
	if err := yaml.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}
	for i, r := range prog.Rules {
		if r.Head == "" {
			return nil, fmt.Errorf("%s: rule %d has no head: %w", path, i, internalerr.ErrInvalidConfig)
		}
	}
	return &prog, nil
}

// Size counts the facts and rules of the program
func (p *Program) Size() (facts, rules int) {
	return len(p.Linear) + len(p.Exponential) + len(p.Persistent), len(p.Rules)
}
