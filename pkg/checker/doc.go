// Package checker classifies the imports of Python source files and reports
// the ones no declaration covers (rule I900).
//
// An [Engine] owns everything derived from one project: the declaration
// source selected by [project.Resolver], the first-party and third-party
// module tries, and the memo they live in. Build it once per run and share
// it between goroutines:
//
//	engine, err := checker.New(checker.Options{RootDir: root})
//	if err != nil {
//	    return err
//	}
//	findings, err := engine.Check(ctx, "pkg/app.py", src)
//
// # Classification
//
// For an import of module P (and, for "from P import N", the alternate path
// P.N) the engine answers, in order:
//
//  1. standard library, when the first segment of P is a stdlib module;
//  2. first party, when the project's own modules cover P or P.N;
//  3. third party, when a declared requirement's modules cover P or P.N;
//  4. setuptools, when the file is the project's setup.py and P is one of
//     the modules setuptools provides;
//  5. missing otherwise, which yields a [Finding].
//
// "Cover" uses namespace-prefix matching: a registered "pkg.sub" covers
// "pkg.sub.deeper" but not "pkg".
//
// # Failure model
//
// Absent or malformed declaration sources are logged and skipped. Fatal
// misconfigurations (a requirements include that cannot be opened or that
// nests too deeply) are returned from [Engine.Check] and abort the file.
package checker
