package modules

import (
	_ "embed"
	"maps"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed known.toml
var knownTOML string

type knownFile struct {
	Modules map[string][]string `toml:"modules"`
}

var knownTable = sync.OnceValue(func() map[string][]string {
	var f knownFile
	if _, err := toml.Decode(knownTOML, &f); err != nil {
		panic("modules: invalid embedded known.toml: " + err.Error())
	}
	return expandKeys(f.Modules)
})

// Known returns a copy of the built-in table of projects whose import names
// differ from their project names, keyed by every candidate
// [ProjectModules] yields for the project.
func Known() map[string][]string {
	return maps.Clone(knownTable())
}

// expandKeys re-keys a project table by normalized module candidates.
func expandKeys(table map[string][]string) map[string][]string {
	out := make(map[string][]string, len(table))
	for project, mods := range table {
		for _, key := range ProjectModules(project) {
			out[key] = mods
		}
	}
	return out
}
