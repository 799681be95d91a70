package config

import "fmt"

// Loader loads the configuration and program files
type Loader struct {
	ConfigPath  string
	ProgramPath string
}

// Components holds everything a runtime is built from
type Components struct {
	Config  *Config
	Program *Program
}

// Load reads both files. An empty path yields the defaults or an empty
// program.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{
		Config:  Default(),
		Program: &Program{},
	}

	if l.ConfigPath != "" {
		cfg, err := LoadConfig(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		comp.Config = cfg
	}

	if l.ProgramPath != "" {
		prog, err := LoadProgram(l.ProgramPath)
		if err != nil {
			return nil, fmt.Errorf("load program: %w", err)
		}
		comp.Program = prog
	}

	return comp, nil
}
