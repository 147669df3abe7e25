package checker

import (
	"context"
)

// Declared is one declared requirement and the modules it provides.
type Declared struct {
	Name        string   `json:"name" yaml:"name"`
	Requirement string   `json:"requirement" yaml:"requirement"`
	Modules     []string `json:"modules" yaml:"modules"`
	// Mapping names the table the modules came from: "override", "known",
	// "host" or "name".
	Mapping string `json:"mapping" yaml:"mapping"`
}

// Summary describes what the engine read from the project.
type Summary struct {
	Root              string     `json:"root" yaml:"root"`
	Source            string     `json:"source" yaml:"source"`
	FirstParty        string     `json:"first_party,omitempty" yaml:"first_party,omitempty"`
	FirstPartyModules []string   `json:"first_party_modules" yaml:"first_party_modules"`
	Requirements      []Declared `json:"requirements" yaml:"requirements"`
}

// Summary reports the selected declaration source, the project's own
// modules and every requirement with its modules. Setup requirements are
// listed only when isSetupPy is set.
func (e *Engine) Summary(ctx context.Context, isSetupPy bool) (*Summary, error) {
	first, err := e.FirstParty(ctx)
	if err != nil {
		return nil, err
	}
	sel, err := e.resolver.ThirdParty(ctx, isSetupPy)
	if err != nil {
		return nil, err
	}
	mods := first.Paths()
	if mods == nil {
		mods = []string{}
	}
	s := &Summary{
		Root:              e.opts.RootDir,
		Source:            sel.Source,
		FirstParty:        e.resolver.FirstPartyName(ctx),
		FirstPartyModules: mods,
		Requirements:      make([]Declared, 0, len(sel.Requirements)),
	}
	for _, req := range sel.Requirements {
		s.Requirements = append(s.Requirements, Declared{
			Name:        req.Name,
			Requirement: req.String(),
			Modules:     e.mapper.Map(req.Name),
			Mapping:     e.mapper.Source(req.Name),
		})
	}
	return s, nil
}
