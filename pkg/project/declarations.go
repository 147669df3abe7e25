package project

import (
	"slices"
	"strings"

	"github.com/matzehuels/reqcheck/pkg/requirements"
)

// Source names of the declaration formats.
const (
	SourceSetupPy      = "setup.py"
	SourceSetupCfg     = "setup.cfg"
	SourcePEP621       = "pyproject.toml [project]"
	SourcePoetry       = "pyproject.toml [tool.poetry]"
	SourceRequirements = "requirements"
)

// Declarations are the requirement strings one declaration source lists.
type Declarations struct {
	// Source is one of the Source* constants.
	Source string `json:"source" yaml:"source"`
	// Name is the project name the source declares, if any.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Install []string            `json:"install,omitempty" yaml:"install,omitempty"`
	Extras  map[string][]string `json:"extras,omitempty" yaml:"extras,omitempty"`
	Tests   []string            `json:"tests,omitempty" yaml:"tests,omitempty"`
	// Setup lists build-time requirements. They only count while the
	// project's own setup.py is checked.
	Setup []string `json:"setup,omitempty" yaml:"setup,omitempty"`
}

// Strings returns the selected requirement strings: install requirements,
// then every extras group in name order, then tests, then setup.
func (d *Declarations) Strings(install, extras, setup, tests bool) []string {
	if d == nil {
		return nil
	}
	var out []string
	if install {
		out = append(out, d.Install...)
	}
	if extras {
		groups := make([]string, 0, len(d.Extras))
		for g := range d.Extras {
			groups = append(groups, g)
		}
		slices.Sort(groups)
		for _, g := range groups {
			out = append(out, d.Extras[g]...)
		}
	}
	if tests {
		out = append(out, d.Tests...)
	}
	if setup {
		out = append(out, d.Setup...)
	}
	return out
}

// Requirements parses the selected requirement strings. Entries that fail
// to parse are skipped and reported through the returned error.
func (d *Declarations) Requirements(install, extras, setup, tests bool) ([]requirements.Requirement, error) {
	var lines []string
	for _, s := range d.Strings(install, extras, setup, tests) {
		lines = append(lines, requirements.YieldLines(s)...)
	}
	return requirements.ParseAll(lines)
}

// All parses every requirement the source declares, counting setup
// requirements only when withSetup is set.
func (d *Declarations) All(withSetup bool) ([]requirements.Requirement, error) {
	return d.Requirements(true, true, withSetup, true)
}

func trimmedLines(s string) []string {
	return requirements.YieldLines(strings.TrimSpace(s))
}
