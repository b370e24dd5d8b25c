package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldenPath(t *testing.T) {
	got := GoldenPath(filepath.Join("testdata", "scenarios", "owner_lifecycle.yaml"))
	assert.Equal(t, filepath.Join("testdata", "golden", "owner_lifecycle.golden"), got)
}

func TestFindScenarioFiles(t *testing.T) {
	files, err := FindScenarioFiles("testdata/scenarios", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "gatekeeping.yaml"),
		filepath.Join("testdata", "scenarios", "owner_lifecycle.yaml"),
	}, files)

	files, err = FindScenarioFiles("testdata/scenarios", "owner_*")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = FindScenarioFiles("testdata/scenarios", "[")
	assert.Error(t, err)
}

func TestRunSuite_Testdata(t *testing.T) {
	suite, err := RunSuite("testdata/scenarios", SuiteOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, suite.Total)
	assert.Equal(t, 2, suite.Passed)
	assert.Equal(t, 0, suite.Failed)
	for _, s := range suite.Scenarios {
		assert.Equal(t, "match", s.Golden, s.Name)
	}
}

func TestRunSuite_UpdateAndMismatch(t *testing.T) {
	root := t.TempDir()
	scenarios := filepath.Join(root, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "minimal.yaml"), []byte(minimalScenario), 0o644))

	suite, err := RunSuite(scenarios, SuiteOptions{})
	require.NoError(t, err)
	require.Len(t, suite.Scenarios, 1)
	assert.True(t, suite.Scenarios[0].Pass)
	assert.Equal(t, "missing", suite.Scenarios[0].Golden)

	suite, err = RunSuite(scenarios, SuiteOptions{Update: true})
	require.NoError(t, err)
	assert.Equal(t, "updated", suite.Scenarios[0].Golden)

	goldenPath := filepath.Join(root, "golden", "minimal.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "minimal"`)

	suite, err = RunSuite(scenarios, SuiteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "match", suite.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0o644))
	suite, err = RunSuite(scenarios, SuiteOptions{})
	require.NoError(t, err)
	assert.False(t, suite.Scenarios[0].Pass)
	assert.Equal(t, 1, suite.Failed)
	assert.Contains(t, suite.Scenarios[0].Errors[0], "does not match golden file")
}

func TestRunFile_LoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [\n"), 0o644))

	res := RunFile(path, false)

	assert.False(t, res.Pass)
	assert.Equal(t, "broken.yaml", res.Name)
	assert.Contains(t, res.Errors[0], "failed to load scenario")
}
