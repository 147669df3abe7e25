package project

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqcheck/pkg/errors"
	"github.com/matzehuels/reqcheck/pkg/requirements"
)

// DefaultRequirementsFile is read when no requirements file is configured.
const DefaultRequirementsFile = "requirements.txt"

// ReadRequirementsFile resolves a requirements file; a relative path is
// taken relative to root. Includes nest at most maxDepth levels below the
// file itself.
//
// A missing top-level file is logged (as a warning when path was given
// explicitly) and declares nothing. Include failures are fatal and
// returned.
func ReadRequirementsFile(root, path string, maxDepth int, logger *log.Logger) (*Declarations, error) {
	if logger == nil {
		logger = log.Default()
	}
	explicit := path != ""
	if !explicit {
		path = DefaultRequirementsFile
	}
	d := &Declarations{Source: SourceRequirements}
	lines, err := requirements.NewResolver(root, maxDepth).ResolveFile(path, maxDepth)
	switch {
	case errors.Is(err, errors.ErrCodeFileNotFound):
		if explicit {
			logger.Warn("couldn't load requirements", "err", errors.UserMessage(err))
		} else {
			logger.Debug("couldn't load requirements", "err", errors.UserMessage(err))
		}
		return d, nil
	case err != nil:
		return nil, err
	}
	d.Install = lines
	return d, nil
}
