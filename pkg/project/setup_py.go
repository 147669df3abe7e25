package project

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqcheck/internal/pyeval"
	"github.com/matzehuels/reqcheck/internal/pysrc"
	"github.com/matzehuels/reqcheck/pkg/observability"
	"github.com/matzehuels/reqcheck/pkg/requirements"
)

// CaptureName is the function qualifying setup() calls are redirected to.
const CaptureName = "__reqcheck_setup"

const (
	minSetupKeywords = 5
	minSetupScore    = 0.5
)

// setupKeywordWeights rates how typical a keyword argument is for a call
// to setuptools.setup(). Unknown keywords weigh 0.
var setupKeywordWeights = map[string]float64{
	"name":                  0.7,
	"version":               0.7,
	"ext_modules":           1.0,
	"packages":              0.8,
	"py_modules":            1.0,
	"author":                0.5,
	"author_email":          0.6,
	"classifiers":           0.6,
	"cmdclass":              0.6,
	"convert_2to3_doctests": 1.0,
	"dependency_links":      0.7,
	"description":           0.5,
	"download_url":          0.5,
	"eager_resources":       0.7,
	"entry_points":          0.7,
	"exclude_package_data":  0.9,
	"extras_require":        0.7,
	"include_package_data":  0.9,
	"install_requires":      0.7,
	"keywords":              0.5,
	"license":               0.5,
	"long_description":      0.5,
	"maintainer":            0.5,
	"maintainer_email":      0.6,
	"namespace_packages":    0.6,
	"package_data":          0.6,
	"package_dir":           0.6,
	"platforms":             0.5,
	"python_requires":       0.7,
	"scripts":               0.5,
	"setup_requires":        0.7,
	"test_loader":           0.6,
	"test_suite":            0.6,
	"tests_require":         0.7,
	"url":                   0.5,
	"use_2to3":              0.9,
	"use_2to3_fixers":       1.0,
	"zip_safe":              0.6,
}

// setupMu serializes build script evaluation; it guards the shared module
// search path.
var setupMu sync.Mutex

// SetupKeywords returns the distinct keyword names of call, including the
// keys of "**{...}" dict displays whose keys are all string literals. ok is
// false when the call cannot be a setup() call: it has positional
// arguments or expands anything else with "**".
func SetupKeywords(call *pysrc.Call) (keywords []string, ok bool) {
	if len(call.Args) > 0 {
		return nil, false
	}
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			keywords = append(keywords, name)
		}
	}
	for _, kw := range call.Keywords {
		if kw.Name != "" {
			add(kw.Name)
			continue
		}
		d, isDict := kw.Value.(*pysrc.Dict)
		if !isDict {
			return nil, false
		}
		for _, k := range d.Keys {
			c, isConst := k.(*pysrc.Constant)
			if !isConst || c.Kind != pysrc.ConstStr {
				return nil, false
			}
			add(c.Str)
		}
	}
	return keywords, true
}

// ScoreSetupCall returns the mean keyword weight of call and whether the
// call qualifies as a setup() call.
func ScoreSetupCall(call *pysrc.Call) (float64, bool) {
	keywords, ok := SetupKeywords(call)
	if !ok || len(keywords) < minSetupKeywords {
		return 0, false
	}
	var sum float64
	for _, k := range keywords {
		sum += setupKeywordWeights[k]
	}
	score := sum / float64(len(keywords))
	return score, score >= minSetupScore
}

// RedirectSetupCalls rewrites the callee of every qualifying call in m to
// [CaptureName] and returns how many calls it rewrote.
func RedirectSetupCalls(m *pysrc.Module, logger *log.Logger) int {
	n := 0
	pysrc.Inspect(m, func(node pysrc.Node) bool {
		call, ok := node.(*pysrc.Call)
		if !ok {
			return true
		}
		score, qualifies := ScoreSetupCall(call)
		if !qualifies {
			if score > 0 && logger != nil {
				logger.Debug("setup call scored below threshold", "line", call.Position().Line, "score", score)
			}
			return true
		}
		call.Func = &pysrc.Name{At: call.Func.Position(), ID: CaptureName}
		n++
		return true
	})
	return n
}

// SetupScript is the outcome of evaluating a project's setup.py.
type SetupScript struct {
	detected bool
	keywords map[string]pyeval.Value
}

// Detected reports whether a setup() call was found and the script ran to
// completion.
func (s *SetupScript) Detected() bool { return s != nil && s.detected }

// Keywords returns the keyword arguments the script passed to setup().
func (s *SetupScript) Keywords() map[string]pyeval.Value {
	if s == nil {
		return nil
	}
	return s.keywords
}

// Name returns the project name passed to setup().
func (s *SetupScript) Name() string {
	if str, ok := s.Keywords()["name"].(pyeval.Str); ok {
		return string(str)
	}
	return ""
}

// Declarations converts the captured keywords. An undetected script
// declares nothing.
func (s *SetupScript) Declarations() *Declarations {
	d := &Declarations{Source: SourceSetupPy}
	if !s.Detected() {
		return d
	}
	kw := s.keywords
	d.Name = s.Name()
	d.Install = valueStrings(kw["install_requires"])
	d.Tests = valueStrings(kw["tests_require"])
	d.Setup = valueStrings(kw["setup_requires"])
	if extras, ok := kw["extras_require"].(*pyeval.Dict); ok {
		d.Extras = make(map[string][]string, extras.Len())
		keys, vals := extras.Keys(), extras.Values()
		for i, k := range keys {
			d.Extras[pyeval.ToStr(k)] = valueStrings(vals[i])
		}
	}
	return d
}

// Requirements parses the selected requirement groups.
func (s *SetupScript) Requirements(install, extras, setup, tests bool) ([]requirements.Requirement, error) {
	return s.Declarations().Requirements(install, extras, setup, tests)
}

// valueStrings flattens a requirements value the way setuptools accepts
// it: a string of lines or any nesting of sequences of strings. Values the
// sandbox could not compute are dropped.
func valueStrings(v pyeval.Value) []string {
	var out []string
	var walk func(pyeval.Value)
	walk = func(v pyeval.Value) {
		switch x := v.(type) {
		case pyeval.Str:
			out = append(out, requirements.YieldLines(string(x))...)
		case *pyeval.List:
			for _, it := range x.Items {
				walk(it)
			}
		case pyeval.Tuple:
			for _, it := range x {
				walk(it)
			}
		case *pyeval.Set:
			for _, it := range x.Items() {
				walk(it)
			}
		case *pyeval.Iterator:
			for _, it := range x.Items {
				walk(it)
			}
		}
	}
	walk(v)
	return out
}

// ReadSetupScript evaluates root/setup.py. A missing, unparsable or failing
// script is logged and reported as not detected.
func ReadSetupScript(ctx context.Context, root string, logger *log.Logger) *SetupScript {
	if logger == nil {
		logger = log.Default()
	}
	path := filepath.Join(root, "setup.py")
	src, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("couldn't load project setup", "path", path, "err", err)
		return &SetupScript{}
	}
	return EvalSetupScript(ctx, src, root, logger)
}

// EvalSetupScript finds the setup() call of src, redirects it and
// evaluates the script as if it were dir/setup.py.
func EvalSetupScript(ctx context.Context, src []byte, dir string, logger *log.Logger) *SetupScript {
	if logger == nil {
		logger = log.Default()
	}
	start := time.Now()
	s := &SetupScript{}
	defer func() {
		observability.Resolver().OnBuildScript(ctx, s.detected, time.Since(start))
	}()

	m, err := pysrc.Parse(src)
	if err != nil {
		logger.Error("couldn't parse setup.py", "err", err)
		return s
	}
	if RedirectSetupCalls(m, logger) == 0 {
		logger.Debug("no setup() call found in setup.py")
		return s
	}

	capture := &pyeval.Builtin{Name: CaptureName, Fn: func(_ *pyeval.Interp, _ []pyeval.Value, kwargs []pyeval.Kwarg) (pyeval.Value, error) {
		kw := make(map[string]pyeval.Value, len(kwargs))
		for _, k := range kwargs {
			kw[k.Name] = k.Value
		}
		s.keywords = kw
		return pyeval.None, nil
	}}

	setupMu.Lock()
	defer setupMu.Unlock()
	pyeval.DefaultPath.Push(dir)
	defer pyeval.DefaultPath.Pop()

	in := pyeval.New(pyeval.Options{
		Dir:      dir,
		Filename: filepath.Join(dir, "setup.py"),
		Globals:  map[string]pyeval.Value{CaptureName: capture},
		Logger:   logger,
	})
	if _, err := in.Exec(ctx, m); err != nil {
		logger.Error("couldn't evaluate setup.py", "err", err)
		s.keywords = nil
		return s
	}
	s.detected = true
	logger.Debug("evaluated setup.py", "steps", in.Steps(), "keywords", len(s.keywords))
	return s
}
