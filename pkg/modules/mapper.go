package modules

import "slices"

// Mapper resolves project names to the module names they provide.
//
// Lookup order is fixed: Overrides, then the built-in known table, then
// Host. The first table holding the project's primary candidate wins; tables
// are never merged. When no table matches, the normalized candidates from
// [ProjectModules] are returned.
type Mapper struct {
	// Overrides are user-supplied mappings keyed by normalized candidate.
	Overrides map[string][]string

	// Host is the index of installed packages, keyed by normalized
	// candidate. Nil disables the host lookup.
	Host map[string][]string

	known map[string][]string
}

// NewMapper returns a Mapper using the built-in known table.
func NewMapper(overrides, host map[string][]string) *Mapper {
	return &Mapper{
		Overrides: overrides,
		Host:      host,
		known:     knownTable(),
	}
}

// Map returns the module names provided by project.
func (m *Mapper) Map(project string) []string {
	candidates := ProjectModules(project)
	key := candidates[0]
	for _, table := range []map[string][]string{m.Overrides, m.knownTable(), m.Host} {
		if mods, ok := table[key]; ok {
			return slices.Clone(mods)
		}
	}
	return candidates
}

// Source names the table that satisfies project: "override", "known",
// "host" or "name".
func (m *Mapper) Source(project string) string {
	key := ProjectModules(project)[0]
	switch {
	case has(m.Overrides, key):
		return "override"
	case has(m.knownTable(), key):
		return "known"
	case has(m.Host, key):
		return "host"
	}
	return "name"
}

func has(table map[string][]string, key string) bool {
	_, ok := table[key]
	return ok
}

func (m *Mapper) knownTable() map[string][]string {
	if m.known == nil {
		return knownTable()
	}
	return m.known
}
