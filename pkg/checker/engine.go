package checker

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqcheck/internal/pysrc"
	"github.com/matzehuels/reqcheck/pkg/cache"
	"github.com/matzehuels/reqcheck/pkg/errors"
	"github.com/matzehuels/reqcheck/pkg/modules"
	"github.com/matzehuels/reqcheck/pkg/observability"
	"github.com/matzehuels/reqcheck/pkg/project"
	"github.com/matzehuels/reqcheck/pkg/requirements"
)

// Kind is the outcome of classifying one import.
type Kind string

const (
	KindStdlib     Kind = "stdlib"
	KindFirstParty Kind = "first-party"
	KindThirdParty Kind = "third-party"
	KindSetuptools Kind = "setuptools"
	KindMissing    Kind = "missing"
)

// firstParty marks first-party trie entries.
type firstParty struct{}

// Verdict explains how an import was classified.
type Verdict struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// Requirement is the declaration covering a third-party import.
	Requirement *requirements.Requirement `json:"requirement,omitempty" yaml:"requirement,omitempty"`
}

// Finding is one undeclared import.
type Finding struct {
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`
	// Line is 1-based; Col is the 0-based column of the import keyword.
	Line    int    `json:"line" yaml:"line"`
	Col     int    `json:"col" yaml:"col"`
	Code    string `json:"code" yaml:"code"`
	Module  string `json:"module" yaml:"module"`
	Message string `json:"message" yaml:"message"`
}

// String formats the finding the way flake8 prints it, with a 1-based
// column.
func (f Finding) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", f.Filename, f.Line, f.Col+1, f.Message)
}

func missingMessage(module string) string {
	return fmt.Sprintf("%s '%s' not listed as a requirement", CodeMissing, module)
}

// Engine classifies imports against one project's declarations. It is safe
// for concurrent use.
type Engine struct {
	opts     Options
	memo     *cache.Memo
	resolver *project.Resolver
	mapper   *modules.Mapper
	logger   *log.Logger

	// setuptools lists the modules the project's setup.py may always import.
	setuptools []string
}

// New validates opts and returns an Engine.
func New(opts Options) (*Engine, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	memo := cache.NewMemo()
	return &Engine{
		opts: opts,
		memo: memo,
		resolver: project.NewResolver(project.Options{
			RootDir:              opts.RootDir,
			RequirementsFile:     opts.RequirementsFile,
			RequirementsMaxDepth: opts.RequirementsMaxDepth,
			Logger:               opts.Logger,
		}, memo),
		mapper:     opts.mapper(),
		logger:     opts.Logger,
		setuptools: modules.Known()["setuptools"],
	}, nil
}

// RootDir returns the project root the engine reads declarations from.
func (e *Engine) RootDir() string { return e.opts.RootDir }

// Resolver returns the engine's declaration resolver.
func (e *Engine) Resolver() *project.Resolver { return e.resolver }

// Mapper returns the project-name mapper the engine uses.
func (e *Engine) Mapper() *modules.Mapper { return e.mapper }

// Reset forgets everything read from the project so the next check reads
// the declarations again.
func (e *Engine) Reset() {
	e.memo.Reset()
	e.logger.Debug("reset project state", "root", e.opts.RootDir)
}

// IsSetupPy reports whether filename is the project's own setup.py.
func (e *Engine) IsSetupPy(filename string) bool {
	return filename != "" && project.IsProjectSetupPy(e.opts.RootDir, filename)
}

// FirstParty returns the trie of the project's own modules.
func (e *Engine) FirstParty(ctx context.Context) (*modules.Trie, error) {
	return cache.Do(ctx, e.memo, "checker.first_party", func() (*modules.Trie, error) {
		name := e.resolver.FirstPartyName(ctx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mods := modules.ProjectModules(name)
		if override, ok := e.opts.KnownModules[mods[0]]; ok {
			mods = override
		}
		t := modules.NewTrie()
		for _, m := range mods {
			if m != "" {
				t.Add(m, firstParty{})
			}
		}
		e.logger.Debug("first-party modules", "name", name, "modules", t.Paths())
		return t, nil
	}, e.opts.RootDir)
}

// ThirdParty returns the trie of modules provided by the declared
// requirements. Setup requirements count only when isSetupPy is set.
func (e *Engine) ThirdParty(ctx context.Context, isSetupPy bool) (*modules.Trie, error) {
	return cache.Do(ctx, e.memo, "checker.third_party", func() (*modules.Trie, error) {
		sel, err := e.resolver.ThirdParty(ctx, isSetupPy)
		if err != nil {
			return nil, err
		}
		t := modules.NewTrie()
		for i := range sel.Requirements {
			req := &sel.Requirements[i]
			for _, m := range e.mapper.Map(req.Name) {
				t.Add(m, req)
			}
		}
		return t, nil
	}, e.opts.RootDir, isSetupPy)
}

// Classify decides where the import rec is satisfied from. isSetupPy tells
// whether the importing file is the project's setup.py.
func (e *Engine) Classify(ctx context.Context, rec pysrc.ImportRecord, isSetupPy bool) (Verdict, error) {
	top := modules.Top(rec.Module)
	if modules.IsStdlib(top) {
		return Verdict{Kind: KindStdlib}, nil
	}

	first, err := e.FirstParty(ctx)
	if err != nil {
		return Verdict{}, err
	}
	if first.Contains(rec.Module) || first.Contains(rec.Alternate) {
		return Verdict{Kind: KindFirstParty}, nil
	}

	third, err := e.ThirdParty(ctx, isSetupPy)
	if err != nil {
		return Verdict{}, err
	}
	for _, path := range []string{rec.Module, rec.Alternate} {
		if v, ok := third.Lookup(path); ok {
			req, _ := v.(*requirements.Requirement)
			return Verdict{Kind: KindThirdParty, Requirement: req}, nil
		}
	}

	if isSetupPy && slices.Contains(e.setuptools, top) {
		return Verdict{Kind: KindSetuptools}, nil
	}
	return Verdict{Kind: KindMissing}, nil
}

// Check extracts the imports of src and reports the undeclared ones.
// filename is used to recognize the project's setup.py and is copied into
// the findings.
func (e *Engine) Check(ctx context.Context, filename string, src []byte) (findings []Finding, err error) {
	done := e.observe(ctx, filename)
	defer func() { done(len(findings), err) }()

	records, err := pysrc.Imports(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", filename)
	}
	return e.checkImports(ctx, filename, records)
}

// CheckImports reports the undeclared imports among records. Imports of the
// same top-level module by one statement collapse into a single finding.
func (e *Engine) CheckImports(ctx context.Context, filename string, records []pysrc.ImportRecord) (findings []Finding, err error) {
	done := e.observe(ctx, filename)
	defer func() { done(len(findings), err) }()
	return e.checkImports(ctx, filename, records)
}

// observe fires the check start hook and returns the completion callback.
func (e *Engine) observe(ctx context.Context, filename string) func(findings int, err error) {
	start := time.Now()
	hooks := observability.Check()
	hooks.OnCheckStart(ctx, filename)
	return func(findings int, err error) {
		hooks.OnCheckComplete(ctx, filename, findings, time.Since(start), err)
	}
}

func (e *Engine) checkImports(ctx context.Context, filename string, records []pysrc.ImportRecord) ([]Finding, error) {
	var findings []Finding
	isSetupPy := e.IsSetupPy(filename)
	type key struct {
		line, col int
		module    string
	}
	seen := make(map[key]bool)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := e.Classify(ctx, rec, isSetupPy)
		if err != nil {
			return nil, err
		}
		if v.Kind != KindMissing {
			continue
		}
		top := modules.Top(rec.Module)
		k := key{rec.Line, rec.Col, top}
		if seen[k] {
			continue
		}
		seen[k] = true
		findings = append(findings, Finding{
			Filename: filename,
			Line:     rec.Line,
			Col:      rec.Col,
			Code:     CodeMissing,
			Module:   top,
			Message:  missingMessage(top),
		})
	}
	if len(findings) > 0 {
		e.logger.Debug("undeclared imports", "file", filename, "count", len(findings))
	}
	return findings, nil
}
