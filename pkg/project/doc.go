// Package project discovers a Python project's declared dependencies.
//
// # Overview
//
// A project declares its third-party requirements in one of five formats.
// [Resolver] consults them in a fixed priority order and uses the first one
// that yields any requirement:
//
//  1. setup.py, by evaluating the build script in a sandbox ([SetupScript])
//  2. setup.cfg ([ReadSetupCfg])
//  3. PEP 621 [project] metadata in pyproject.toml ([ReadPyproject])
//  4. Poetry [tool.poetry] metadata in pyproject.toml
//  5. requirements.txt or a configured requirements file
//
// An explicitly configured requirements file short-circuits the chain.
//
// # Failure Model
//
// Readers fail soft. A missing or malformed declaration file is logged at
// debug level and contributes nothing; a build script that cannot be
// evaluated is logged and treated as undetected. The only errors returned
// are fatal misconfigurations of requirements includes
// ([errors.ErrCodeMaxDepth], [errors.ErrCodeIncludeNotFound]).
//
// # Memoization
//
// Every reader result is memoized in the [cache.Memo] passed to
// [NewResolver], so a project's files are read at most once per engine
// lifetime. Call Reset on the memo after the files change.
package project
