package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteOptions controls RunSuite.
type SuiteOptions struct {
	// Filter is a glob matched against scenario file names without
	// extension. Empty runs every scenario.
	Filter string

	// Update rewrites golden files instead of comparing against them.
	Update bool
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "updated" or "missing"
	Errors []string `json:"errors,omitempty"`
}

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// FindScenarioFiles lists the .yaml and .yml files directly inside dir,
// sorted by name.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}

	files := []string{}
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		ext := filepath.Ext(de.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(de.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, de.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// RunSuite runs every scenario in dir and checks each against its golden
// file when one exists.
func RunSuite(dir string, opts SuiteOptions) (*SuiteResult, error) {
	files, err := FindScenarioFiles(dir, opts.Filter)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		res := RunFile(file, opts.Update)
		suite.Scenarios = append(suite.Scenarios, res)
		if res.Pass {
			suite.Passed++
		} else {
			suite.Failed++
		}
	}
	return suite, nil
}

// RunFile loads and runs one scenario file. Load and execution failures
// are reported in the result, not returned.
func RunFile(path string, update bool) ScenarioResult {
	res := ScenarioResult{Name: filepath.Base(path), Path: path}

	scenario, err := LoadScenario(path)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return res
	}
	res.Name = scenario.Name

	result, err := Run(scenario)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return res
	}
	res.Errors = result.Errors

	golden, err := checkGolden(path, scenario.Name, result, update)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	res.Golden = golden
	res.Pass = result.Pass
	return res
}

// errGoldenMismatch reports a trace that differs from its golden file.
var errGoldenMismatch = errors.New("trace does not match golden file (run with --update to regenerate)")

func checkGolden(path, name string, result *Result, update bool) (string, error) {
	data, err := Snapshot(name, result)
	if err != nil {
		return "", err
	}
	goldenPath := GoldenPath(path)

	if update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			return "", fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write golden file: %w", err)
		}
		return "updated", nil
	}

	want, err := os.ReadFile(goldenPath)
	if errors.Is(err, os.ErrNotExist) {
		return "missing", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, data) {
		return "", errGoldenMismatch
	}
	return "match", nil
}
