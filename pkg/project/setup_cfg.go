package project

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/ini.v1"
)

// iniOptions parse files the way Python's configparser does for setup.cfg:
// indented continuation lines extend the previous value, keys are case
// insensitive and ";" inside a value is a marker separator, not a comment.
var iniOptions = ini.LoadOptions{
	AllowPythonMultilineValues: true,
	IgnoreInlineComment:        true,
	InsensitiveKeys:            true,
}

// LoadINI reads an ini-style configuration file with setup.cfg semantics.
func LoadINI(path string) (*ini.File, error) {
	return ini.LoadSources(iniOptions, path)
}

// ReadSetupCfg reads the setuptools declarative configuration in
// root/setup.cfg. A missing or malformed file yields empty declarations.
func ReadSetupCfg(root string, logger *log.Logger) *Declarations {
	if logger == nil {
		logger = log.Default()
	}
	d := &Declarations{Source: SourceSetupCfg}
	path := filepath.Join(root, "setup.cfg")
	if _, err := os.Stat(path); err != nil {
		logger.Debug("couldn't load setup configuration", "path", path, "err", err)
		return d
	}
	cfg, err := LoadINI(path)
	if err != nil {
		logger.Debug("couldn't load setup configuration", "path", path, "err", err)
		return d
	}

	d.Name = cfg.Section("metadata").Key("name").String()
	opts := cfg.Section("options")
	d.Install = trimmedLines(opts.Key("install_requires").String())
	d.Tests = trimmedLines(opts.Key("tests_require").String())
	d.Setup = trimmedLines(opts.Key("setup_requires").String())
	if sec, err := cfg.GetSection("options.extras_require"); err == nil {
		for _, key := range sec.Keys() {
			if d.Extras == nil {
				d.Extras = make(map[string][]string)
			}
			d.Extras[key.Name()] = trimmedLines(key.String())
		}
	}
	return d
}
