package modules

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

var overrideSepRE = regexp.MustCompile(`\],?`)

// ParseKnownModules parses the inline override syntax
// "project:[mod1,mod2],other:[mod3]". Keys are normalized with
// [ProjectModules]; an empty project key is allowed and maps modules that
// belong to no declared project.
//
//	ParseKnownModules(":[pydrmcodec],mylib:[mylib.drm,mylib.ex]")
//	// {"": ["pydrmcodec"], "mylib": ["mylib.drm", "mylib.ex"]}
func ParseKnownModules(s string) (map[string][]string, error) {
	out := make(map[string][]string)
	parts := overrideSepRE.Split(s, -1)
	if len(parts) == 0 {
		return out, nil
	}
	// Everything after the last "]" is not part of an entry.
	for _, part := range parts[:len(parts)-1] {
		project, mods, ok := strings.Cut(part, ":[")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid known-modules entry %q", strings.TrimSpace(part))
		}
		project = strings.TrimSpace(project)
		var list []string
		for _, mod := range strings.Split(mods, ",") {
			mod = strings.TrimSpace(mod)
			if err := errors.ValidateModulePath(mod); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "known-modules entry %q", project)
			}
			list = append(list, mod)
		}
		out[ProjectModules(project)[0]] = list
	}
	return out, nil
}

// LoadKnownModules reads overrides from a TOML or YAML file holding a table
// of project name to module list, optionally nested under a "modules" key.
func LoadKnownModules(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read known modules %s", path)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported known modules file %s (use .toml or .yaml)", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if nested, ok := raw["modules"].(map[string]any); ok && len(raw) == 1 {
		raw = nested
	}

	out := make(map[string][]string, len(raw))
	for project, v := range raw {
		items, ok := v.([]any)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: modules of %q must be a list", path, project)
		}
		var list []string
		for _, item := range items {
			mod, ok := item.(string)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: module of %q must be a string", path, project)
			}
			if err := errors.ValidateModulePath(mod); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: project %q", path, project)
			}
			list = append(list, mod)
		}
		out[ProjectModules(project)[0]] = list
	}
	return out, nil
}
