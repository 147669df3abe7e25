package project

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Pyproject is the subset of pyproject.toml the resolver reads.
type Pyproject struct {
	Project struct {
		Name                 string              `toml:"name"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name            string         `toml:"name"`
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// ReadPyproject decodes root/pyproject.toml. A missing or malformed file
// yields an empty document.
func ReadPyproject(root string, logger *log.Logger) *Pyproject {
	if logger == nil {
		logger = log.Default()
	}
	var p Pyproject
	path := filepath.Join(root, "pyproject.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("couldn't load project setup", "path", path, "err", err)
		return &p
	}
	if _, err := toml.Decode(string(data), &p); err != nil {
		logger.Debug("couldn't load project setup", "path", path, "err", err)
		return &Pyproject{}
	}
	return &p
}

// PEP621 returns the [project] declarations: dependencies plus every
// optional-dependencies group.
func (p *Pyproject) PEP621() *Declarations {
	d := &Declarations{
		Source:  SourcePEP621,
		Name:    p.Project.Name,
		Install: p.Project.Dependencies,
	}
	if len(p.Project.OptionalDependencies) > 0 {
		d.Extras = p.Project.OptionalDependencies
	}
	return d
}

// Poetry returns the [tool.poetry] declarations. Poetry lists dependencies
// as tables keyed by project name, so only the keys are used: dependencies,
// dev-dependencies and the dependencies of every group.
func (p *Pyproject) Poetry() *Declarations {
	poetry := p.Tool.Poetry
	d := &Declarations{
		Source:  SourcePoetry,
		Name:    poetry.Name,
		Install: sortedKeys(poetry.Dependencies),
	}
	extras := make(map[string][]string)
	if dev := sortedKeys(poetry.DevDependencies); len(dev) > 0 {
		extras["dev-dependencies"] = dev
	}
	for name, group := range poetry.Group {
		if deps := sortedKeys(group.Dependencies); len(deps) > 0 {
			extras["group."+name] = append(extras["group."+name], deps...)
		}
	}
	if len(extras) > 0 {
		d.Extras = extras
	}
	return d
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
