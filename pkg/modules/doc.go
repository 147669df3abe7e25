// Package modules maps Python project names to the module names they expose
// at import time and matches dotted import paths against those modules.
//
// A project name is first normalized by [ProjectModules] ("python-boom"
// becomes "python_boom" and "boom"). [Mapper] then looks the normalized name
// up in user overrides, in the built-in table of projects whose import names
// differ from their project names, and in an optional index of packages
// installed on the host, falling back to the normalized candidates.
//
// [Trie] stores the resulting dotted module paths with namespace-prefix
// semantics: registering "pkg.sub" satisfies "pkg.sub.deeper" but not "pkg".
//
// [IsStdlib] reports whether a top-level module belongs to the Python
// standard library.
package modules
