package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	require.NoError(t, err, "empty loader should succeed")

	assert.Equal(t, Default(), comp.Config)
	require.NotNil(t, comp.Program)
	facts, rules := comp.Program.Size()
	assert.Zero(t, facts)
	assert.Zero(t, rules)
}

func TestLoaderNonExistentConfig(t *testing.T) {
	loader := Loader{ConfigPath: "/nonexistent/linlog.yaml"}

	_, err := loader.Load()
	assert.Error(t, err)
}

func TestLoaderNonExistentProgram(t *testing.T) {
	loader := Loader{ProgramPath: "/nonexistent/program.yaml"}

	_, err := loader.Load()
	assert.Error(t, err)
}

func TestLoaderValidFiles(t *testing.T) {
	loader := Loader{
		ConfigPath:  writeFile(t, "linlog.yaml", "engine:\n  max_solutions: 8\n"),
		ProgramPath: writeFile(t, "program.yaml", "linear: [bread]\n"),
	}

	comp, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 8, comp.Config.Engine.MaxSolutions)
	assert.Equal(t, []string{"bread"}, comp.Program.Linear)
}
