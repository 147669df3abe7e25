package project

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqcheck/pkg/cache"
	"github.com/matzehuels/reqcheck/pkg/observability"
	"github.com/matzehuels/reqcheck/pkg/requirements"
)

// DefaultRequirementsMaxDepth is how deep "-r" includes may nest below the
// top-level requirements file.
const DefaultRequirementsMaxDepth = 1

// Options configure a Resolver.
type Options struct {
	// RootDir is the project root. Relative lookups resolve against the
	// current directory when it is empty.
	RootDir string

	// RequirementsFile, when set, is the only declaration source consulted.
	RequirementsFile string

	// RequirementsMaxDepth bounds nested requirements includes.
	RequirementsMaxDepth int

	Logger *log.Logger
}

// Selection is the declaration source chosen for a check.
type Selection struct {
	Source       string                     `json:"source" yaml:"source"`
	Requirements []requirements.Requirement `json:"requirements" yaml:"requirements"`
}

// Resolver selects a project's declaration source and memoizes what it
// reads. It is safe for concurrent use.
type Resolver struct {
	opts   Options
	memo   *cache.Memo
	logger *log.Logger
}

// NewResolver returns a Resolver storing its results in memo. A nil memo
// gets a private one.
func NewResolver(opts Options, memo *cache.Memo) *Resolver {
	if memo == nil {
		memo = cache.NewMemo()
	}
	if opts.RequirementsMaxDepth < 0 {
		opts.RequirementsMaxDepth = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{opts: opts, memo: memo, logger: logger}
}

// RootDir returns the project root the resolver reads from.
func (r *Resolver) RootDir() string { return r.opts.RootDir }

// SetupScript returns the evaluated setup.py. An evaluation cut short by
// ctx is not memoized.
func (r *Resolver) SetupScript(ctx context.Context) *SetupScript {
	s, _ := cache.Do(ctx, r.memo, "project.setup_py", func() (*SetupScript, error) {
		s := ReadSetupScript(ctx, r.opts.RootDir, r.logger)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return s, nil
	}, r.opts.RootDir)
	return s
}

// SetupCfg returns the setup.cfg declarations.
func (r *Resolver) SetupCfg(ctx context.Context) *Declarations {
	d, _ := cache.Do(ctx, r.memo, "project.setup_cfg", func() (*Declarations, error) {
		return ReadSetupCfg(r.opts.RootDir, r.logger), nil
	}, r.opts.RootDir)
	return d
}

// Pyproject returns the decoded pyproject.toml.
func (r *Resolver) Pyproject(ctx context.Context) *Pyproject {
	p, _ := cache.Do(ctx, r.memo, "project.pyproject", func() (*Pyproject, error) {
		return ReadPyproject(r.opts.RootDir, r.logger), nil
	}, r.opts.RootDir)
	return p
}

// RequirementsFile returns the declarations of the configured requirements
// file, or of requirements.txt in the root.
func (r *Resolver) RequirementsFile(ctx context.Context) (*Declarations, error) {
	return cache.Do(ctx, r.memo, "project.requirements_txt", func() (*Declarations, error) {
		return ReadRequirementsFile(r.opts.RootDir, r.opts.RequirementsFile, r.opts.RequirementsMaxDepth, r.logger)
	}, r.opts.RootDir, r.opts.RequirementsFile, r.opts.RequirementsMaxDepth)
}

// ThirdParty selects the declaration source for a check and parses its
// requirements. Setup requirements count only when isSetupPy is set.
func (r *Resolver) ThirdParty(ctx context.Context, isSetupPy bool) (*Selection, error) {
	return cache.Do(ctx, r.memo, "project.third_party", func() (*Selection, error) {
		sel, err := r.selectSource(ctx, isSetupPy)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		observability.Resolver().OnSourceSelected(ctx, sel.Source, len(sel.Requirements))
		r.logger.Debug("selected declaration source", "source", sel.Source, "requirements", len(sel.Requirements))
		return sel, nil
	}, r.opts.RootDir, r.opts.RequirementsFile, isSetupPy)
}

func (r *Resolver) selectSource(ctx context.Context, isSetupPy bool) (*Selection, error) {
	if r.opts.RequirementsFile != "" {
		d, err := r.RequirementsFile(ctx)
		if err != nil {
			return nil, err
		}
		return r.parse(d, isSetupPy), nil
	}

	var candidates []*Declarations
	if s := r.SetupScript(ctx); s.Detected() {
		candidates = append(candidates, s.Declarations())
	}
	py := r.Pyproject(ctx)
	candidates = append(candidates, r.SetupCfg(ctx), py.PEP621(), py.Poetry())
	for _, d := range candidates {
		if sel := r.parse(d, isSetupPy); len(sel.Requirements) > 0 {
			return sel, nil
		}
	}

	d, err := r.RequirementsFile(ctx)
	if err != nil {
		return nil, err
	}
	return r.parse(d, isSetupPy), nil
}

func (r *Resolver) parse(d *Declarations, isSetupPy bool) *Selection {
	reqs, err := d.All(isSetupPy)
	if err != nil {
		r.logger.Warn("skipped invalid requirements", "source", d.Source, "err", err)
	}
	return &Selection{Source: d.Source, Requirements: reqs}
}

// FirstPartyName returns the project's own name: the setup.py name, then
// setup.cfg's [metadata] name, then PEP 621, then Poetry.
func (r *Resolver) FirstPartyName(ctx context.Context) string {
	if name := r.SetupScript(ctx).Name(); name != "" {
		return name
	}
	if name := r.SetupCfg(ctx).Name; name != "" {
		return name
	}
	py := r.Pyproject(ctx)
	if py.Project.Name != "" {
		return py.Project.Name
	}
	return py.Tool.Poetry.Name
}
