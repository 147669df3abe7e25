package requirements

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

var (
	optionRE      = regexp.MustCompile(`^(-[\w-]+)(.*)$`)
	extrasRE      = regexp.MustCompile(`^(.*?)\s*(\[[^\]]+\])`)
	trailingOptRE = regexp.MustCompile(`^(.*?)\s+--(global-option|install-option|hash)`)
	vcsRE         = regexp.MustCompile(`^(git|hg|svn|bzr)\+(.*)$`)
	vcsEggRE      = regexp.MustCompile(`egg=([\w\-.]+)`)
	archiveRE     = regexp.MustCompile(`(?i)^(.*)\.(tar(\.(bz2|gz|lz|lzma|xz))?|tbz|tgz|tlz|txz|whl|zip)$`)
)

// Resolver expands requirements-file lines into bare requirement strings.
type Resolver struct {
	// RootDir anchors relative include paths given without an including
	// directory. Empty means the current working directory.
	RootDir string

	// ConfiguredDepth is the user-facing include depth, reported when the
	// limit is exceeded.
	ConfiguredDepth int
}

// NewResolver returns a Resolver rooted at rootDir.
func NewResolver(rootDir string, configuredDepth int) *Resolver {
	return &Resolver{RootDir: rootDir, ConfiguredDepth: configuredDepth}
}

// Resolve reduces one logical requirements line to zero or more requirement
// strings. Includes ("-r path") are followed while maxDepth is positive;
// dir is the directory of the file the line came from.
//
// Errors are fatal misconfigurations: an include beyond maxDepth
// ([errors.ErrCodeMaxDepth]) or an include that cannot be opened
// ([errors.ErrCodeIncludeNotFound]).
func (r *Resolver) Resolve(line string, maxDepth int, dir string) ([]string, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, nil
	}

	editable := false
	if m := optionRE.FindStringSubmatch(line); m != nil {
		flag, rest := m[1], strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m[2]), "="))
		switch flag {
		case "-e", "--editable":
			editable = true
			line = rest
		case "-r", "--requirement":
			return r.include(rest, maxDepth, dir)
		default:
			return nil, nil
		}
	}

	if m := vcsRE.FindStringSubmatch(line); m != nil {
		if egg := vcsEggRE.FindStringSubmatch(m[2]); egg != nil {
			return []string{egg[1]}, nil
		}
	}

	if name, ok := archiveRequirement(line); ok {
		return []string{name}, nil
	}

	if editable {
		line = filepath.Base(filepath.FromSlash(line))
		if f := strings.Fields(line); len(f) > 0 && f[0] == "." {
			return nil, nil
		}
		if m := extrasRE.FindStringSubmatch(line); m != nil && m[1] == "." {
			return nil, nil
		}
	}

	if m := trailingOptRE.FindStringSubmatch(line); m != nil {
		line = m[1]
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	return []string{line}, nil
}

// ResolveFile resolves every logical line of the requirements file at path.
// A missing file is reported with [errors.ErrCodeFileNotFound]; callers that
// read the top-level file treat that as an absent source.
func (r *Resolver) ResolveFile(path string, maxDepth int) ([]string, error) {
	if !filepath.IsAbs(path) && r.RootDir != "" {
		path = filepath.Join(r.RootDir, path)
	}
	lines, err := readLogicalLines(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	return r.resolveLines(lines, maxDepth, filepath.Dir(path))
}

func (r *Resolver) include(path string, maxDepth int, dir string) ([]string, error) {
	if maxDepth <= 0 {
		return nil, errors.New(errors.ErrCodeMaxDepth,
			"cannot resolve %s: beyond max depth (--requirements-max-depth=%d)", path, r.ConfiguredDepth)
	}
	if path == "" {
		return nil, errors.New(errors.ErrCodeIncludeNotFound, "include without a path")
	}
	if !filepath.IsAbs(path) {
		base := dir
		if base == "" {
			base = r.RootDir
		}
		path = filepath.Join(base, path)
	}
	lines, err := readLogicalLines(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIncludeNotFound, err, "cannot resolve %s", path)
	}
	return r.resolveLines(lines, maxDepth-1, filepath.Dir(path))
}

func (r *Resolver) resolveLines(lines []string, maxDepth int, dir string) ([]string, error) {
	var out []string
	for _, line := range lines {
		reqs, err := r.Resolve(line, maxDepth, dir)
		if err != nil {
			return nil, err
		}
		out = append(out, reqs...)
	}
	return out, nil
}

func readLogicalLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return JoinLines(SplitLines(string(data))), nil
}

// archiveRequirement reduces a local archive reference such as
// "dist/mypkg-1.2.3.tar.gz" to "mypkg == 1.2.3".
func archiveRequirement(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}
	ref, _, _ := strings.Cut(fields[0], "#")
	m := archiveRE.FindStringSubmatch(ref)
	if m == nil {
		return "", false
	}
	base := m[1]
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	parts := strings.Split(base, "-")
	if parts[0] == "" {
		return "", false
	}
	if len(parts) > 1 && parts[1] != "" {
		return parts[0] + " == " + parts[1], true
	}
	return parts[0], true
}
