package pyeval

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/reqcheck/internal/pysrc"
)

// SearchPath is the process-wide list of directories local modules are
// imported from. Callers that evaluate build scripts push the project root
// for the duration of the evaluation.
type SearchPath struct {
	mu   sync.Mutex
	dirs []string
}

// DefaultPath is the search path shared by interpreters that do not set
// Options.Path.
var DefaultPath = &SearchPath{}

// Push inserts dir at the front of the path.
func (p *SearchPath) Push(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs = append([]string{dir}, p.dirs...)
}

// Pop removes the most recently pushed directory.
func (p *SearchPath) Pop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.dirs) > 0 {
		p.dirs = p.dirs[1:]
	}
}

// Dirs returns a snapshot of the path.
func (p *SearchPath) Dirs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.dirs)
}

func (in *Interp) searchDirs() []string {
	var dirs []string
	if in.opts.Dir != "" {
		dirs = append(dirs, in.opts.Dir)
	}
	for _, d := range in.opts.Path.Dirs() {
		if !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// importModule returns the module name, importing its parents first.
// Modules that are neither modeled nor found locally are Opaque.
func (in *Interp) importModule(name string) (*Module, error) {
	if m, ok := in.modules[name]; ok {
		return m, nil
	}
	var parent *Module
	leaf := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		p, err := in.importModule(name[:i])
		if err != nil {
			return nil, err
		}
		parent, leaf = p, name[i+1:]
		if m, ok := in.modules[name]; ok {
			return m, nil
		}
	}
	m, err := in.loadModule(name)
	if err != nil {
		return nil, err
	}
	if parent != nil {
		parent.Attrs[leaf] = m
	}
	return m, nil
}

func (in *Interp) loadModule(name string) (*Module, error) {
	if m, ok := sandboxModule(in, name); ok {
		in.modules[name] = m
		return m, nil
	}
	if path, pkg, ok := in.findLocal(name); ok {
		return in.loadLocal(name, path, pkg)
	}
	m := &Module{Name: name, Attrs: map[string]Value{}, Partial: true}
	in.modules[name] = m
	return m, nil
}

// findLocal locates the source of a module below the search path.
func (in *Interp) findLocal(name string) (path string, pkg bool, ok bool) {
	rel := filepath.FromSlash(strings.ReplaceAll(name, ".", "/"))
	for _, dir := range in.searchDirs() {
		if p := filepath.Join(dir, rel+".py"); isFile(p) {
			return p, false, true
		}
		if p := filepath.Join(dir, rel, "__init__.py"); isFile(p) {
			return p, true, true
		}
	}
	return "", false, false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// loadLocal executes a project module. A module that fails to load is
// kept as a partial module so the importing script can proceed.
func (in *Interp) loadLocal(name, path string, pkg bool) (*Module, error) {
	m := &Module{Name: name, Attrs: map[string]Value{}}
	in.modules[name] = m
	src, err := os.ReadFile(path)
	if err != nil {
		in.logger.Debug("local module unreadable", "module", name, "path", path, "err", err)
		m.Partial = true
		return m, nil
	}
	parsed, err := pysrc.Parse(src)
	if err != nil {
		in.logger.Debug("local module unparsable", "module", name, "path", path, "err", err)
		m.Partial = true
		return m, nil
	}
	scope := newModuleScope()
	scope.vars = m.Attrs
	scope.module = scope
	scope.vars["__name__"] = Str(name)
	scope.vars["__file__"] = Str(path)
	pkgName := name
	if !pkg {
		pkgName = ""
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			pkgName = name[:i]
		}
	}
	scope.vars["__package__"] = Str(pkgName)
	if err := in.execModule(scope, parsed.Body); err != nil {
		if _, halt := err.(*haltError); halt {
			return nil, err
		}
		in.logger.Debug("local module failed", "module", name, "path", path, "err", err)
		m.Partial = true
	}
	return m, nil
}

func (in *Interp) execImport(s *Scope, st *pysrc.Import) error {
	for _, a := range st.Names {
		m, err := in.importModule(a.Name)
		if err != nil {
			return err
		}
		if a.AsName != "" {
			s.set(a.AsName, m)
			continue
		}
		top, _, _ := strings.Cut(a.Name, ".")
		s.set(top, in.modules[top])
	}
	return nil
}

func (in *Interp) execImportFrom(s *Scope, st *pysrc.ImportFrom) error {
	name := st.Module
	if st.Level > 0 {
		pkg, _ := s.module.vars["__package__"].(Str)
		parts := strings.Split(string(pkg), ".")
		if pkg == "" || st.Level-1 >= len(parts) {
			return newException("ImportError", "attempted relative import with no known parent package")
		}
		base := strings.Join(parts[:len(parts)-(st.Level-1)], ".")
		name = base
		if st.Module != "" {
			name = base + "." + st.Module
		}
	}
	m, err := in.importModule(name)
	if err != nil {
		return err
	}
	for _, a := range st.Names {
		if a.Name == "*" {
			for k, v := range m.Attrs {
				if !strings.HasPrefix(k, "_") {
					s.set(k, v)
				}
			}
			continue
		}
		bind := a.Name
		if a.AsName != "" {
			bind = a.AsName
		}
		if v, ok := m.Attrs[a.Name]; ok {
			s.set(bind, v)
			continue
		}
		sub := name + "." + a.Name
		if _, _, local := in.findLocal(sub); local {
			sm, err := in.importModule(sub)
			if err != nil {
				return err
			}
			s.set(bind, sm)
			continue
		}
		if m.Partial {
			s.set(bind, opaque(name+"."+a.Name))
			continue
		}
		return newException("ImportError", "cannot import name '%s' from '%s'", a.Name, name)
	}
	return nil
}
