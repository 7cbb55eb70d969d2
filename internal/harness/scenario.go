package harness

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/madgwhat/internal/fusion"
)

// Scenario is a bench profile: which modules to compare and how to drive them.
type Scenario struct {
	// Name identifies the profile in output and golden files.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// Files are explicit module paths.
	Files []string `yaml:"files,omitempty"`

	// Dirs are scanned for modules with the platform extension.
	Dirs []string `yaml:"dirs,omitempty"`

	// Seed makes the generated measurement reproducible.
	// Absent means a fresh, non-reproducible measurement.
	Seed *uint64 `yaml:"seed,omitempty"`

	// Measurement fixes the input outright and takes precedence over Seed.
	Measurement *fusion.Measurement `yaml:"measurement,omitempty"`

	Beta   *float32 `yaml:"beta,omitempty"`
	Deltat *float32 `yaml:"deltat,omitempty"`

	// Tolerance is the largest absolute component difference still counted
	// as agreement.
	Tolerance *float64 `yaml:"tolerance,omitempty"`
}

// Tuning returns the scenario's setter values.
func (s *Scenario) Tuning() Tuning {
	return Tuning{Beta: s.Beta, Deltat: s.Deltat}
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
//
// Relative files and dirs are resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	scenario.Files = resolvePaths(base, scenario.Files)
	scenario.Dirs = resolvePaths(base, scenario.Dirs)
	return scenario, nil
}

// ParseScenario decodes a scenario document. Paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolvePaths(base string, paths []string) []string {
	resolved := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) || base == "" {
			resolved[i] = p
			continue
		}
		resolved[i] = filepath.Join(base, p)
	}
	return resolved
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	for i, f := range s.Files {
		if f == "" {
			return fmt.Errorf("files[%d]: path is empty", i)
		}
	}
	for i, d := range s.Dirs {
		if d == "" {
			return fmt.Errorf("dirs[%d]: path is empty", i)
		}
	}

	if s.Beta != nil && !finite(float64(*s.Beta)) {
		return fmt.Errorf("beta must be finite")
	}
	if s.Deltat != nil && !finite(float64(*s.Deltat)) {
		return fmt.Errorf("deltat must be finite")
	}
	if s.Tolerance != nil && (!finite(*s.Tolerance) || *s.Tolerance < 0) {
		return fmt.Errorf("tolerance must be a non-negative finite number")
	}

	if s.Measurement != nil {
		for i, v := range s.Measurement.Values() {
			if !finite(float64(v)) {
				return fmt.Errorf("measurement value %d is not finite", i)
			}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
