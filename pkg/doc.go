// Package pkg holds the reqcheck libraries.
//
// reqcheck decides, for every import in a Python source file, whether the
// imported module is part of the standard library, part of the project
// itself, provided by a declared requirement, or missing. Missing imports
// are reported as I900 findings.
//
// # Layout
//
//   - [requirements] parses PEP 508 requirement strings and requirements.txt
//     files, following -r and -c includes up to a configurable depth.
//   - [modules] maps project names to the top-level modules they provide,
//     using a known-modules table, user overrides and installed
//     site-packages metadata.
//   - [project] discovers the project root and reads declarations from
//     pyproject.toml, setup.py, setup.cfg and requirements files.
//   - [checker] classifies imports and produces findings and reports.
//   - [cache] stores the host site-packages index on disk or in Redis.
//   - [errors] defines the coded errors shared across packages.
//   - [observability] exposes hooks for metrics and tracing.
//   - [httputil] holds the JSON helpers of the HTTP service.
//
// # Data flow
//
//	pyproject.toml / setup.py / setup.cfg / requirements.txt
//	         ↓
//	    [project] (pick one declaration source)
//	         ↓
//	    [modules] (project name → top-level modules)
//	         ↓
//	    [checker] (classify each import, report I900)
//
// # Quick start
//
//	engine, err := checker.New(checker.Options{RootDir: "/src/demo"})
//	if err != nil {
//	    return err
//	}
//	findings, err := engine.Check(ctx, "/src/demo/app.py", src)
//
// Package [github.com/matzehuels/reqcheck/internal/cli] wires these
// libraries into the reqcheck command.
package pkg
