package checker

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqcheck/pkg/errors"
	"github.com/matzehuels/reqcheck/pkg/modules"
	"github.com/matzehuels/reqcheck/pkg/project"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultRequirementsMaxDepth is how deep "-r" includes may nest.
	DefaultRequirementsMaxDepth = project.DefaultRequirementsMaxDepth

	// CodeMissing is the rule reported for undeclared imports.
	CodeMissing = "I900"
)

// =============================================================================
// Options
// =============================================================================

// Options configure an [Engine].
type Options struct {
	// RootDir is the project root. When empty it is discovered by walking
	// up from the current directory.
	RootDir string

	// RequirementsFile replaces every other declaration source. Relative
	// paths resolve against RootDir.
	RequirementsFile string

	// RequirementsMaxDepth bounds nested requirements includes. Zero allows
	// no includes at all.
	RequirementsMaxDepth int

	// KnownModules maps normalized project names to the modules they
	// provide, taking precedence over every built-in mapping. Build it with
	// [modules.ParseKnownModules] or [modules.LoadKnownModules].
	KnownModules map[string][]string

	// HostModules is an index of packages installed on the host, as built
	// by [modules.HostIndex]. Nil disables host lookups.
	HostModules map[string][]string

	// Logger defaults to a discarding logger.
	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.RequirementsMaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"requirements max depth must not be negative, got %d", o.RequirementsMaxDepth)
	}
	for key, mods := range o.KnownModules {
		for _, m := range mods {
			if err := errors.ValidateModulePath(m); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "known modules for %q", key)
			}
		}
	}
	if strings.ContainsRune(o.RequirementsFile, '\x00') {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid requirements file %q", o.RequirementsFile)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.RootDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			o.RootDir = project.DiscoverRoot(cwd, o.Logger)
		}
	}
	o.validated = true
	return nil
}

// mapper returns the project-name mapper the options describe.
func (o *Options) mapper() *modules.Mapper {
	return modules.NewMapper(o.KnownModules, o.HostModules)
}
