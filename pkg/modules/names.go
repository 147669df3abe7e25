package modules

import "strings"

// ProjectModules returns the module name candidates for a project name:
// the name lowercased with "-" replaced by "_", plus the same name without
// a "python_" prefix when present.
//
//	ProjectModules("Python-Boom") // ["python_boom", "boom"]
func ProjectModules(project string) []string {
	name := strings.ReplaceAll(strings.ToLower(project), "-", "_")
	if rest, ok := strings.CutPrefix(name, "python_"); ok && rest != "" {
		return []string{name, rest}
	}
	return []string{name}
}

// Split returns the segments of a dotted module path.
func Split(path string) []string {
	return strings.Split(path, ".")
}

// Top returns the first segment of a dotted module path.
func Top(path string) string {
	top, _, _ := strings.Cut(path, ".")
	return top
}
