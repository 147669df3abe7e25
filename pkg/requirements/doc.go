// Package requirements parses Python requirement declarations.
//
// Two layers are provided:
//
//   - [Resolver] turns one logical line of a requirements file into bare
//     requirement strings. It follows "-r" includes recursively (relative to
//     the including file), reduces VCS links, local archives and editable
//     installs to project names, and drops options it does not understand.
//
//   - [Parse] turns one requirement string into a [Requirement] following the
//     PEP 508 requirement-specifier grammar: a project name, optional extras,
//     optional version specifiers or a direct URL, and an optional
//     environment marker. Version constraints are kept opaque.
//
// # Example
//
//	r := requirements.NewResolver("/path/to/project", 1)
//	lines, err := r.Resolve("-r requirements.txt", 2, "")
//	if err != nil {
//	    return err // fatal: include depth exceeded or include missing
//	}
//	reqs, err := requirements.ParseAll(lines)
package requirements
